package ports

import (
	"context"
	"time"

	"IPOAlertBot/internal/domain"
	"IPOAlertBot/internal/normalize"
)

// OfferingSource pulls the current raw issue list from the upstream exchange.
type OfferingSource interface {
	FetchCurrent(ctx context.Context) ([]normalize.RawEntry, error)
}

// StateStore persists per-offering alert and interest state. Implementations
// must serialize concurrent writers for the same name so a reconciliation
// pass and an interest update cannot lose each other's fields.
type StateStore interface {
	GetOrCreate(ctx context.Context, name string) (domain.OfferingState, error)
	MarkOpenAlertSent(ctx context.Context, name string) error
	MarkLastDayAlertSent(ctx context.Context, name string) error
	SetInterest(ctx context.Context, name string, interest domain.Interest) error
	Close() error
}

// Choice is one button of an interactive prompt.
type Choice struct {
	Label string
	Data  string
}

// MessageRef identifies a previously sent message for later edits.
type MessageRef struct {
	ChatID    string
	MessageID int64
}

// CallbackEvent is one inbound button press decoded from the chat transport.
type CallbackEvent struct {
	ID   string
	Ref  MessageRef
	Data string
}

// Dispatcher delivers alerts and prompt edits to the target chat.
type Dispatcher interface {
	SendMessage(ctx context.Context, text string) error
	SendInteractive(ctx context.Context, text string, choices [2]Choice) error
	EditMessage(ctx context.Context, ref MessageRef, text string) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Scheduler controls when reconciliation passes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
