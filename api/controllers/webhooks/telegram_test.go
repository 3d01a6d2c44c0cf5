package webhooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

type stubConversation struct {
	err   error
	calls int
}

func (s *stubConversation) Handle(_ context.Context, _ telegram.Update) error {
	s.calls++
	return s.err
}

func TestTelegramWebhook_unconfiguredTokenFails(t *testing.T) {
	handler := TelegramWebhook(&stubConversation{}, "", nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(`{}`))
	handler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without a bot token, got %d", w.Code)
	}
}

func TestTelegramWebhook_handlesUpdate(t *testing.T) {
	svc := &stubConversation{}
	handler := TelegramWebhook(svc, "token", nil)

	body := `{"update_id":1,"message":{"message_id":2,"from":{"id":3},"chat":{"id":4},"text":"/start"}}`
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.calls != 1 {
		t.Fatalf("expected the update to be handled")
	}
}

func TestTelegramWebhook_processingFailure(t *testing.T) {
	svc := &stubConversation{err: errors.New("send failed")}
	handler := TelegramWebhook(svc, "token", nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram",
		strings.NewReader(`{"update_id":1,"message":{"from":{"id":3},"chat":{"id":4},"text":"/start"}}`))
	handler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on processing failure, got %d", w.Code)
	}
}

func TestTelegramWebhook_unparsableBody(t *testing.T) {
	handler := TelegramWebhook(&stubConversation{}, "token", nil)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader("not json")))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unparsable update, got %d", w.Code)
	}
}
