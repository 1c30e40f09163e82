package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"IPOAlertBot/internal/ports"
)

type recordingHandler struct {
	events chan ports.CallbackEvent
}

func (h *recordingHandler) HandleCallback(ctx context.Context, ev ports.CallbackEvent) error {
	h.events <- ev
	return nil
}

func newTestListener(server *httptest.Server, handler CallbackHandler) *Listener {
	d := newTestDispatcher(server)
	l := NewListener(d, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.pollTimeout = time.Second
	l.retryDelay = 10 * time.Millisecond
	return l
}

func TestListenerRoutesCallbackAndAdvancesOffset(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		offsets []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}

		mu.Lock()
		offsets = append(offsets, r.URL.Query().Get("offset"))
		first := len(offsets) == 1
		mu.Unlock()

		if first {
			_, _ = w.Write([]byte(`{"ok":true,"result":[{
				"update_id": 100,
				"callback_query": {
					"id": "cb-1",
					"data": "Beta Ltd|yes",
					"message": {"message_id": 7, "chat": {"id": 42}}
				}
			}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer server.Close()

	handler := &recordingHandler{events: make(chan ports.CallbackEvent, 1)}
	listener := newTestListener(server, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = listener.Run(ctx)
		close(done)
	}()

	var ev ports.CallbackEvent
	select {
	case ev = <-handler.events:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback never routed")
	}
	cancel()
	<-done

	if ev.ID != "cb-1" || ev.Data != "Beta Ltd|yes" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Ref.ChatID != "42" || ev.Ref.MessageID != 7 {
		t.Fatalf("unexpected message ref: %+v", ev.Ref)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(offsets) >= 2 && offsets[1] != "101" {
		t.Fatalf("offset not advanced past update, got %q", offsets[1])
	}
}

func TestListenerRepliesToStartCommand(t *testing.T) {
	t.Parallel()

	replies := make(chan map[string]any, 1)
	var served sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			select {
			case replies <- body:
			default:
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}

		payload := `{"ok":true,"result":[]}`
		served.Do(func() {
			payload = `{"ok":true,"result":[{
				"update_id": 1,
				"message": {"text": "/start", "chat": {"id": 99}}
			}]}`
		})
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	listener := newTestListener(server, &recordingHandler{events: make(chan ports.CallbackEvent, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = listener.Run(ctx)
		close(done)
	}()

	var reply map[string]any
	select {
	case reply = <-replies:
	case <-time.After(2 * time.Second):
		t.Fatalf("start reply never sent")
	}
	cancel()
	<-done

	if reply["text"] != startReply {
		t.Fatalf("reply text = %v, want %q", reply["text"], startReply)
	}
	if reply["chat_id"] != float64(99) {
		t.Fatalf("reply must target the sender's chat, got %v", reply["chat_id"])
	}
}
