package domain

import "time"

// Offering is a normalized view of one upstream issue entry, valid for a
// single reconciliation pass.
type Offering struct {
	Name        string
	IssueSizeCr float64
	StartDate   time.Time
	EndDate     time.Time
	StartText   string
	EndText     string
	Status      string
}

// Interest records whether the recipient wants the last-day reminder.
type Interest string

const (
	InterestUnknown Interest = "unknown"
	InterestYes     Interest = "yes"
	InterestNo      Interest = "no"
)

// Valid reports whether the value is one of the three known states.
func (i Interest) Valid() bool {
	switch i {
	case InterestUnknown, InterestYes, InterestNo:
		return true
	}
	return false
}

// OfferingState is the persisted alert ledger for one offering. The offering
// name is the primary key; upstream exposes no stable identifier beyond it,
// so two distinct offerings sharing a name would share a row (accepted
// limitation).
type OfferingState struct {
	Name             string
	OpenAlertSent    bool
	LastDayAlertSent bool
	Interest         Interest
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
