package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"IPOAlertBot/internal/ports"
)

const startReply = "IPO Alert Bot is active."

// CallbackHandler consumes decoded button presses.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, ev ports.CallbackEvent) error
}

// Listener long-polls getUpdates and routes commands and callback queries.
type Listener struct {
	dispatcher  *Dispatcher
	handler     CallbackHandler
	logger      *slog.Logger
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// NewListener wires the update loop to its dispatcher and callback handler.
func NewListener(dispatcher *Dispatcher, handler CallbackHandler, logger *slog.Logger) *Listener {
	return &Listener{
		dispatcher:  dispatcher,
		handler:     handler,
		logger:      logger,
		pollTimeout: 25 * time.Second,
		retryDelay:  3 * time.Second,
	}
}

type chatRef struct {
	ID int64 `json:"id"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string  `json:"text"`
		Chat chatRef `json:"chat"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			MessageID int64   `json:"message_id"`
			Chat      chatRef `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Run blocks polling for updates until the context is cancelled. Per-update
// failures are logged and never stop the loop.
func (l *Listener) Run(ctx context.Context) error {
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := l.fetchUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("get updates failed", "error", err)
			select {
			case <-time.After(l.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			l.route(ctx, upd)
		}
	}
}

func (l *Listener) fetchUpdates(ctx context.Context, offset int64) ([]update, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=%d",
		l.dispatcher.apiBase, l.dispatcher.botToken, offset, int(l.pollTimeout.Seconds()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := l.dispatcher.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("telegram getUpdates error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram getUpdates returned ok=false")
	}

	return parsed.Result, nil
}

func (l *Listener) route(ctx context.Context, upd update) {
	switch {
	case upd.CallbackQuery != nil:
		cb := upd.CallbackQuery
		ev := ports.CallbackEvent{
			ID:   cb.ID,
			Data: cb.Data,
		}
		if cb.Message != nil {
			ev.Ref = ports.MessageRef{
				ChatID:    strconv.FormatInt(cb.Message.Chat.ID, 10),
				MessageID: cb.Message.MessageID,
			}
		}
		if err := l.handler.HandleCallback(ctx, ev); err != nil {
			l.logger.Warn("callback rejected", "data", cb.Data, "error", err)
		}

	case upd.Message != nil && strings.HasPrefix(strings.TrimSpace(upd.Message.Text), "/start"):
		reply := map[string]any{
			"chat_id": upd.Message.Chat.ID,
			"text":    startReply,
		}
		if err := l.dispatcher.call(ctx, "sendMessage", reply); err != nil {
			l.logger.Warn("start reply failed", "error", err)
		}
	}
}
