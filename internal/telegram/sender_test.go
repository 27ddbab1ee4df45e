package telegram_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DeafMist/news-brief/internal/telegram"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	form     map[string]string
	failSend bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"brief","username":"brief_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.form = map[string]string{}
		for k := range r.PostForm {
			f.form[k] = r.PostForm.Get(k)
		}
		f.mu.Unlock()
		if f.failSend {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newSender(t *testing.T, api *fakeBotAPI) *telegram.Sender {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	s, err := telegram.NewSenderWithEndpoint("123:abc", srv.URL+"/bot%s/%s", srv.Client(), 42, nil)
	require.NoError(t, err)
	return s
}

func TestSendPostsMarkdownMessage(t *testing.T) {
	api := &fakeBotAPI{}
	s := newSender(t, api)

	require.NoError(t, s.Send(context.Background(), "*hello*"))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Equal(t, "42", api.form["chat_id"])
	require.Equal(t, "*hello*", api.form["text"])
	require.Equal(t, "Markdown", api.form["parse_mode"])
	require.Equal(t, "true", api.form["disable_web_page_preview"])
}

func TestSendReportsAPIError(t *testing.T) {
	s := newSender(t, &fakeBotAPI{failSend: true})
	require.Error(t, s.Send(context.Background(), "x"))
}

func TestSendHonoursCanceledContext(t *testing.T) {
	s := newSender(t, &fakeBotAPI{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Send(ctx, "x"), context.Canceled)
}
