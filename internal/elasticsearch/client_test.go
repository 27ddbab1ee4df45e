package elasticsearch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DeafMist/news-brief/internal/elasticsearch"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/stretchr/testify/require"
)

func fakeCluster(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.New(srv.URL, "news-brief", nil)
	require.NoError(t, err)
	return client
}

func TestSearchBodyDefaults(t *testing.T) {
	body := elasticsearch.SearchBody(elasticsearch.SearchParams{Size: 1000, From: -5})

	require.Equal(t, 200, body["size"])
	require.Equal(t, 0, body["from"])

	query := body["query"].(map[string]any)["bool"].(map[string]any)
	require.Contains(t, query, "must")
	require.NotContains(t, query, "filter")
}

func TestSearchBodyFilters(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	body := elasticsearch.SearchBody(elasticsearch.SearchParams{
		Query:    "금리",
		Category: "economy",
		Start:    &start,
	})

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	s := string(raw)

	require.Contains(t, s, `"multi_match"`)
	require.Contains(t, s, `"term":{"category":"economy"}`)
	require.Contains(t, s, `"gte":"2024-01-01T00:00:00Z"`)
	require.Equal(t, 20, body["size"])
}

func TestIndexItem(t *testing.T) {
	var gotPath string
	var gotDoc models.ArchivedItem
	client := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	doc := models.ArchivedItem{ID: "abc", Category: "economy", Title: "금리 동결"}
	require.NoError(t, client.IndexItem(context.Background(), doc))

	require.Equal(t, "/news-brief/_doc/abc", gotPath)
	require.Equal(t, "금리 동결", gotDoc.Title)
}

func TestIndexItemError(t *testing.T) {
	client := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := client.IndexItem(context.Background(), models.ArchivedItem{ID: "abc"})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "mapper_parsing_exception"))
}

func TestSearchItems(t *testing.T) {
	var gotPath string
	client := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[
			{"_source":{"id":"1","category":"economy","title":"a"}},
			{"_source":{"id":"2","category":"economy","title":"b"}}
		]}}`))
	})

	res, err := client.SearchItems(context.Background(), elasticsearch.SearchParams{Category: "economy"})
	require.NoError(t, err)
	require.Equal(t, "/news-brief/_search", gotPath)
	require.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, "b", res.Items[1].Title)
}

func TestDeleteOlderThanStopsOnShortBatch(t *testing.T) {
	calls := 0
	client := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		deleted := 10
		if calls == 2 {
			deleted = 3
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"deleted": deleted})
	})

	total, err := client.DeleteOlderThan(context.Background(), time.Hour, 10)
	require.NoError(t, err)
	require.Equal(t, int64(13), total)
	require.Equal(t, 2, calls)
}
