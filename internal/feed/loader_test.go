package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DeafMist/news-brief/internal/feed"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `{
  "generated_at": "2024-01-01T00:00:00Z",
  "items": [
    {"category": "economy", "source": "A", "title": "<b>X</b>", "summary": "s", "url": "http://x", "published_at": null},
    {"category": "politics", "source": "B", "title": " 국회 ", "summary": "요약", "url": "http://y", "published_at": "2024-01-01 09:00"}
  ]
}`

func newServer(t *testing.T, status int, body string, seen *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/latest.json" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			*seen = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadParsesFeed(t *testing.T) {
	var headers http.Header
	srv := newServer(t, http.StatusOK, sampleFeed, &headers)

	loader, err := feed.NewLoader(srv.URL+"/", "", 0, nil)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/posts/latest.json", loader.URL())

	got, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, "no-store", headers.Get("Cache-Control"))
	require.Equal(t, "2024-01-01T00:00:00Z", got.GeneratedAt)
	require.Len(t, got.Items, 2)

	require.Equal(t, models.CategoryEconomy, got.Items[0].Category)
	require.Equal(t, "<b>X</b>", got.Items[0].Title)
	require.Nil(t, got.Items[0].PublishedAt)

	require.Equal(t, "국회", got.Items[1].Title)
	require.NotNil(t, got.Items[1].PublishedAt)
	require.Equal(t, "2024-01-01 09:00", *got.Items[1].PublishedAt)
}

func TestLoadStatusError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, "boom", nil)

	loader, err := feed.NewLoader(srv.URL, feed.DefaultPath, 0, nil)
	require.NoError(t, err)

	_, err = loader.Load(context.Background())
	require.ErrorIs(t, err, feed.ErrUnavailable)
}

func TestLoadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	loader, err := feed.NewLoader(url, "", 0, nil)
	require.NoError(t, err)

	_, err = loader.Load(context.Background())
	require.ErrorIs(t, err, feed.ErrUnavailable)
}

func TestLoadInvalidJSON(t *testing.T) {
	srv := newServer(t, http.StatusOK, "<html>not json</html>", nil)

	loader, err := feed.NewLoader(srv.URL, "", 0, nil)
	require.NoError(t, err)

	_, err = loader.Load(context.Background())
	require.ErrorIs(t, err, feed.ErrMalformed)
}

func TestWithPathResolvesAgainstBase(t *testing.T) {
	loader, err := feed.NewLoader("https://brief.example.com/site/", "", 0, nil)
	require.NoError(t, err)
	require.Equal(t, "https://brief.example.com/site/posts/latest.json", loader.URL())

	dated, err := loader.WithPath("posts/2024-01-01.json")
	require.NoError(t, err)
	require.Equal(t, "https://brief.example.com/site/posts/2024-01-01.json", dated.URL())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		items   int
		dropped int
	}{
		{name: "array body", body: `[]`, wantErr: true},
		{name: "missing items", body: `{"generated_at": "x"}`, wantErr: true},
		{name: "wrong item type", body: `{"items": [{"title": 5}]}`, wantErr: true},
		{name: "empty items", body: `{"items": []}`, items: 0},
		{name: "drops empty item", body: `{"items": [{"category": "economy"}, {"url": "http://z"}]}`, items: 1, dropped: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped, err := feed.Decode([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, feed.ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Len(t, got.Items, tt.items)
			require.Equal(t, tt.dropped, dropped)
		})
	}
}

func TestDecodeDerivesMissingTitle(t *testing.T) {
	got, _, err := feed.Decode([]byte(`{"items": [{"summary": "금리가 동결됐다. 시장은 안도했다.", "url": "http://z"}]}`))
	require.NoError(t, err)
	require.Equal(t, "금리가 동결됐다", got.Items[0].Title)
}

func TestDecodeEpochGeneratedAt(t *testing.T) {
	got, _, err := feed.Decode([]byte(`{"generated_at": 1704067200, "items": []}`))
	require.NoError(t, err)
	require.Equal(t, "1704067200", got.GeneratedAt)
}
