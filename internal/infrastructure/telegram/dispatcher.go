package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"IPOAlertBot/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Dispatcher delivers alerts to a Telegram chat via the bot API.
type Dispatcher struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher registers bot token and target chat identifier.
func NewDispatcher(botToken, chatID string) *Dispatcher {
	return &Dispatcher{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

// SendMessage posts a plain text message to the configured chat.
func (d *Dispatcher) SendMessage(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id": d.chatID,
		"text":    text,
	}
	return d.call(ctx, "sendMessage", payload)
}

// SendInteractive posts a message with a one-row inline keyboard attached.
func (d *Dispatcher) SendInteractive(ctx context.Context, text string, choices [2]ports.Choice) error {
	payload := map[string]any{
		"chat_id": d.chatID,
		"text":    text,
		"reply_markup": inlineKeyboard{
			InlineKeyboard: [][]inlineButton{{
				{Text: choices[0].Label, CallbackData: choices[0].Data},
				{Text: choices[1].Label, CallbackData: choices[1].Data},
			}},
		},
	}
	return d.call(ctx, "sendMessage", payload)
}

// EditMessage replaces the text of a previously sent message.
func (d *Dispatcher) EditMessage(ctx context.Context, ref ports.MessageRef, text string) error {
	payload := map[string]any{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
		"text":       text,
	}
	return d.call(ctx, "editMessageText", payload)
}

// AnswerCallback acknowledges a callback query so the client stops spinning.
func (d *Dispatcher) AnswerCallback(ctx context.Context, callbackID string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	return d.call(ctx, "answerCallbackQuery", payload)
}

func (d *Dispatcher) call(ctx context.Context, method string, payload map[string]any) error {
	if d.botToken == "" || d.client == nil {
		return fmt.Errorf("telegram dispatcher misconfigured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", d.apiBase, d.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram %s error %s: %s", method, resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
