package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"IPOAlertBot/internal/domain"
	"IPOAlertBot/internal/normalize"
	"IPOAlertBot/internal/ports"
)

const openStatus = "open"

// ReconcilerDeps wires all driven adapters into the reconciliation engine.
type ReconcilerDeps struct {
	Source         ports.OfferingSource
	Store          ports.StateStore
	Dispatcher     ports.Dispatcher
	MinIssueSizeCr float64
	Logger         *slog.Logger
}

// Reconciler compares freshly fetched offerings against persisted state and
// fires each life-cycle alert at most once per successful dispatch.
type Reconciler struct {
	source     ports.OfferingSource
	store      ports.StateStore
	dispatcher ports.Dispatcher
	minSizeCr  float64
	logger     *slog.Logger
}

// NewReconciler constructs the engine.
func NewReconciler(deps ReconcilerDeps) *Reconciler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:     deps.Source,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		minSizeCr:  deps.MinIssueSizeCr,
		logger:     logger,
	}
}

// Reconcile runs one pass: fetch, normalize, then evaluate every offering
// independently. A fetch failure aborts the pass with no state changes;
// per-offering failures are logged and skipped so the rest of the pass
// proceeds, and the skipped offering is retried on the next trigger because
// its sent flag was never committed.
func (r *Reconciler) Reconcile(ctx context.Context, today time.Time) error {
	entries, err := r.source.FetchCurrent(ctx)
	if err != nil {
		return fmt.Errorf("fetch current issues: %w", err)
	}

	offerings := normalize.Normalize(entries, r.minSizeCr)
	r.logger.Debug("reconciliation pass",
		"fetched", len(entries), "above_threshold", len(offerings),
		"today", today.Format(normalize.DateLayout))

	for _, offering := range offerings {
		r.reconcileOne(ctx, today, offering)
	}

	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, today time.Time, offering domain.Offering) {
	state, err := r.store.GetOrCreate(ctx, offering.Name)
	if err != nil {
		r.logger.Warn("load offering state failed, skipping",
			"offering", offering.Name, "error", err)
		return
	}

	if strings.EqualFold(offering.Status, openStatus) && !state.OpenAlertSent {
		r.sendOpenAlert(ctx, offering)
	}

	// Only an explicit "no" suppresses the reminder; unknown still alerts.
	if normalize.SameDay(offering.EndDate, today) && !state.LastDayAlertSent &&
		state.Interest != domain.InterestNo {
		r.sendLastDayAlert(ctx, offering)
	}
}

func (r *Reconciler) sendOpenAlert(ctx context.Context, offering domain.Offering) {
	choices := [2]ports.Choice{
		{Label: "✅ Yes", Data: InterestToken(offering.Name, domain.InterestYes)},
		{Label: "❌ No", Data: InterestToken(offering.Name, domain.InterestNo)},
	}

	if err := r.dispatcher.SendInteractive(ctx, openAlertText(offering), choices); err != nil {
		r.logger.Warn("open alert dispatch failed, will retry next pass",
			"offering", offering.Name, "error", err)
		return
	}

	if err := r.store.MarkOpenAlertSent(ctx, offering.Name); err != nil {
		// Alert went out but the commit did not; the next pass may repeat it.
		r.logger.Error("open alert sent but not committed",
			"offering", offering.Name, "error", err)
	}
}

func (r *Reconciler) sendLastDayAlert(ctx context.Context, offering domain.Offering) {
	if err := r.dispatcher.SendMessage(ctx, lastDayAlertText(offering)); err != nil {
		r.logger.Warn("last day alert dispatch failed, will retry next pass",
			"offering", offering.Name, "error", err)
		return
	}

	if err := r.store.MarkLastDayAlertSent(ctx, offering.Name); err != nil {
		r.logger.Error("last day alert sent but not committed",
			"offering", offering.Name, "error", err)
	}
}

func openAlertText(offering domain.Offering) string {
	return fmt.Sprintf("📢 IPO OPEN\n\n%s\nIssue Size: ₹%s Cr\n%s → %s\n\nInterested?",
		offering.Name, formatSize(offering.IssueSizeCr), offering.StartText, offering.EndText)
}

func lastDayAlertText(offering domain.Offering) string {
	return fmt.Sprintf("⏰ LAST DAY TO APPLY\n\n%s\nIssue Size: ₹%s Cr",
		offering.Name, formatSize(offering.IssueSizeCr))
}

func formatSize(sizeCr float64) string {
	return strconv.FormatFloat(sizeCr, 'f', -1, 64)
}
