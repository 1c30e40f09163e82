package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"IPOAlertBot/internal/domain"
	"IPOAlertBot/internal/ports"
)

// ErrInvalidChoice marks an inbound interest token whose choice is neither
// "yes" nor "no".
var ErrInvalidChoice = errors.New("invalid interest choice")

const tokenDelimiter = "|"

// InterestToken encodes an offering name and choice into callback data.
func InterestToken(name string, choice domain.Interest) string {
	return name + tokenDelimiter + string(choice)
}

// ParseInterestToken splits callback data back into name and choice. The
// delimiter is searched from the right so offering names containing the
// delimiter still round-trip.
func ParseInterestToken(token string) (string, domain.Interest, error) {
	idx := strings.LastIndex(token, tokenDelimiter)
	if idx < 0 {
		return "", "", fmt.Errorf("%w: malformed token %q", ErrInvalidChoice, token)
	}

	name := token[:idx]
	choice := domain.Interest(token[idx+1:])
	if choice != domain.InterestYes && choice != domain.InterestNo {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidChoice, string(choice))
	}

	return name, choice, nil
}

// InterestHandler records a recipient's yes/no answer for one offering and
// rewrites the originating prompt to show what was stored.
type InterestHandler struct {
	store      ports.StateStore
	dispatcher ports.Dispatcher
	logger     *slog.Logger
}

// NewInterestHandler constructs the handler.
func NewInterestHandler(store ports.StateStore, dispatcher ports.Dispatcher, logger *slog.Logger) *InterestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterestHandler{store: store, dispatcher: dispatcher, logger: logger}
}

// HandleCallback acknowledges the button press, validates the token, stores
// the interest flag, and edits the prompt. An invalid choice mutates nothing
// and surfaces ErrInvalidChoice; a store failure surfaces as a failed update.
func (h *InterestHandler) HandleCallback(ctx context.Context, ev ports.CallbackEvent) error {
	if err := h.dispatcher.AnswerCallback(ctx, ev.ID); err != nil {
		h.logger.Warn("answer callback failed", "callback", ev.ID, "error", err)
	}

	name, choice, err := ParseInterestToken(ev.Data)
	if err != nil {
		return err
	}

	if err := h.store.SetInterest(ctx, name, choice); err != nil {
		return fmt.Errorf("store interest for %q: %w", name, err)
	}

	confirmation := fmt.Sprintf("%s\n\nInterest recorded: %s", name, strings.ToUpper(string(choice)))
	if err := h.dispatcher.EditMessage(ctx, ev.Ref, confirmation); err != nil {
		return fmt.Errorf("edit prompt for %q: %w", name, err)
	}

	return nil
}
