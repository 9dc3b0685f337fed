package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/97Cweb/package-scraper/config"
	"github.com/97Cweb/package-scraper/workers/orders/models"
)

// State tracks one reconciliation batch through the tracking API.
type State int

const (
	StatePendingSubmit State = iota
	StateSubmitted
	StatePolling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePendingSubmit:
		return "pending_submit"
	case StateSubmitted:
		return "submitted"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// API is the tracking service surface the reconciler depends on.
type API interface {
	Submit(ctx context.Context, shipments []ShipmentQuery) (*ApiResponse, error)
	Poll(ctx context.Context, uuid string) (*ApiResponse, error)
}

// Notifier delivers a transition message to the user. An empty tracking
// number means no barcode is attached.
type Notifier interface {
	Notify(subject, body, trackingNumber string) error
}

// Outcome summarizes one reconciliation batch.
type Outcome struct {
	State    State
	Eligible int
	Resolved int
	Notified int
}

// Reconciler submits every outstanding shipment to the tracking API in
// one batch, waits for the results and folds them back into the order
// records, notifying the user exactly once per status transition.
type Reconciler struct {
	logger   *zap.Logger
	api      API
	notifier Notifier
	cfg      *config.ParcelsAppConfig
}

func NewReconciler(logger *zap.Logger, api API, notifier Notifier, cfg *config.ParcelsAppConfig) *Reconciler {
	return &Reconciler{
		logger:   logger,
		api:      api,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Reconcile returns the updated records. The input slice is not
// modified. On submit failure the records come back unchanged with an
// error; a poll failure is downgraded to whatever cached results the
// submit already returned, so partial progress still lands in the store.
func (r *Reconciler) Reconcile(ctx context.Context, records []models.OrderRecord) ([]models.OrderRecord, *Outcome, error) {
	outcome := &Outcome{State: StatePendingSubmit}

	updated := make([]models.OrderRecord, len(records))
	copy(updated, records)

	queries := r.eligibleQueries(updated)
	outcome.Eligible = len(queries)
	if len(queries) == 0 {
		r.logger.Info("No packages to track.")
		outcome.State = StateDone
		return updated, outcome, nil
	}

	response, err := r.api.Submit(ctx, queries)
	if err != nil {
		outcome.State = StateFailed
		return updated, outcome, fmt.Errorf("submit tracking batch: %w", err)
	}
	outcome.State = StateSubmitted

	cached := response.Shipments
	var polled []ShipmentResult
	if response.UUID != "" {
		outcome.State = StatePolling
		polled, err = r.poll(ctx, response.UUID)
		if err != nil {
			// Keep whatever the submit answered inline; the whole
			// cycle runs again on the next scheduled invocation.
			r.logger.Warn("Tracking poll abandoned", zap.Error(err))
			outcome.State = StateFailed
		}
	}
	if outcome.State != StateFailed {
		outcome.State = StateDone
	}

	results := mergeResults(cached, polled)
	outcome.Resolved = len(results)

	for _, result := range results {
		outcome.Notified += r.resolve(updated, result)
	}

	return updated, outcome, nil
}

// eligibleQueries builds the submission batch: every record with a
// tracking number whose status is not terminal.
func (r *Reconciler) eligibleQueries(records []models.OrderRecord) []ShipmentQuery {
	var queries []ShipmentQuery
	for _, record := range records {
		if !record.Trackable() {
			continue
		}
		queries = append(queries, ShipmentQuery{
			TrackingID: record.TrackingNumber,
			Language:   "en",
			Country:    r.cfg.Country,
			Zipcode:    r.cfg.PostalCode,
		})
	}
	return queries
}

// poll waits for the batch to resolve, checking on a fixed interval and
// giving up after MaxPollAttempts or when the run context ends.
func (r *Reconciler) poll(ctx context.Context, uuid string) ([]ShipmentResult, error) {
	for attempt := 0; attempt < r.cfg.MaxPollAttempts; attempt++ {
		response, err := r.api.Poll(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if response.Done {
			return response.Shipments, nil
		}

		r.logger.Info("Tracking in progress, retrying",
			zap.Duration("interval", r.cfg.PollInterval),
			zap.Int("attempt", attempt+1),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
	return nil, fmt.Errorf("tracking batch %s not done after %d polls", uuid, r.cfg.MaxPollAttempts)
}

// mergeResults combines inline cached results with polled ones by
// tracking number. Polled results win on conflict.
func mergeResults(cached, polled []ShipmentResult) []ShipmentResult {
	indexed := make(map[string]ShipmentResult, len(cached)+len(polled))
	order := make([]string, 0, len(cached)+len(polled))
	for _, result := range cached {
		if _, seen := indexed[result.TrackingID]; !seen {
			order = append(order, result.TrackingID)
		}
		indexed[result.TrackingID] = result
	}
	for _, result := range polled {
		if _, seen := indexed[result.TrackingID]; !seen {
			order = append(order, result.TrackingID)
		}
		indexed[result.TrackingID] = result
	}

	merged := make([]ShipmentResult, 0, len(indexed))
	for _, key := range order {
		merged = append(merged, indexed[key])
	}
	return merged
}

// resolve folds one shipment result into every matching record and
// returns how many notifications fired. A notification fires only when
// the stored status differs from the resolved one, never on the new
// value alone, so an already-delivered package stays quiet on later
// cycles. The record's tracking fields update regardless.
func (r *Reconciler) resolve(records []models.OrderRecord, result ShipmentResult) int {
	notified := 0
	for i := range records {
		if records[i].TrackingNumber != result.TrackingID {
			continue
		}

		if records[i].Status != result.Status {
			if r.notifyTransition(records[i], result.Status) {
				notified++
			}
		}

		records[i].Status = result.Status
		records[i].DeliveredBy = result.DeliveredBy
		records[i].Events = toEvents(result.States)
		records[i].LatestEvent = toLatestEvent(result.LastState)
	}
	return notified
}

func (r *Reconciler) notifyTransition(record models.OrderRecord, newStatus string) bool {
	lowered := strings.ToLower(newStatus)

	var subject, body, barcode string
	switch {
	case lowered == models.StatusDelivered:
		subject = fmt.Sprintf("Package delivered: order %s", record.OrderNumber)
		body = fmt.Sprintf("Your %s order %s (tracking %s) has been delivered.",
			record.Company, record.OrderNumber, record.TrackingNumber)
	case strings.Contains(lowered, "pickup"):
		subject = fmt.Sprintf("Package ready for pickup: order %s", record.OrderNumber)
		body = fmt.Sprintf("Your %s order %s (tracking %s) is ready for pickup.",
			record.Company, record.OrderNumber, record.TrackingNumber)
		barcode = record.TrackingNumber
	default:
		return false
	}

	if err := r.notifier.Notify(subject, body, barcode); err != nil {
		r.logger.Error("Failed to send notification",
			zap.String("tracking_number", record.TrackingNumber),
			zap.Error(err),
		)
		return false
	}

	r.logger.Info("Notification sent",
		zap.String("tracking_number", record.TrackingNumber),
		zap.String("status", newStatus),
	)
	return true
}

func toEvents(states []ShipmentState) []models.TrackingEvent {
	if len(states) == 0 {
		return nil
	}
	events := make([]models.TrackingEvent, 0, len(states))
	for _, state := range states {
		events = append(events, models.TrackingEvent{
			Location: state.Location,
			Date:     state.Date,
			Status:   state.Status,
		})
	}
	return events
}

func toLatestEvent(state *ShipmentState) *models.TrackingEvent {
	if state == nil {
		return nil
	}
	return &models.TrackingEvent{
		Location: state.Location,
		Date:     state.Date,
		Status:   state.Status,
	}
}
