package models

import "strings"

// Terminal statuses. Once a record carries one of these it is excluded
// from tracking submissions and from the watch list, but never deleted.
const (
	StatusDelivered = "delivered"
	StatusArchive   = "archive"
)

// TrackingEvent is a single carrier scan in a shipment's history.
type TrackingEvent struct {
	Location string `json:"location,omitempty"`
	Date     string `json:"date,omitempty"`
	Status   string `json:"status,omitempty"`
}

// OrderRecord represents one purchase/shipment. Records are keyed by
// OrderNumber; a record without one is never persisted.
type OrderRecord struct {
	OrderNumber    string          `json:"order_number"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Company        string          `json:"company,omitempty"`
	Subject        string          `json:"subject,omitempty"`
	From           string          `json:"from,omitempty"`
	DateReceived   string          `json:"date_received,omitempty"`
	Items          []string        `json:"items,omitempty"`
	Status         string          `json:"status,omitempty"`
	DeliveredBy    string          `json:"delivered_by,omitempty"`
	Events         []TrackingEvent `json:"events,omitempty"`
	LatestEvent    *TrackingEvent  `json:"latest_event,omitempty"`
}

// Terminal reports whether the record's status means the shipment is
// finished, case-insensitively.
func (r OrderRecord) Terminal() bool {
	status := strings.ToLower(r.Status)
	return status == StatusDelivered || status == StatusArchive
}

// Trackable reports whether the record should be included in a tracking
// submission batch.
func (r OrderRecord) Trackable() bool {
	return r.TrackingNumber != "" && !r.Terminal()
}

// Apply overwrites r's fields with in's present fields. Fields in never
// re-populates (an empty incoming value) are preserved, so previously
// computed tracking data survives a re-extraction of the same order.
func (r *OrderRecord) Apply(in OrderRecord) {
	if in.TrackingNumber != "" {
		r.TrackingNumber = in.TrackingNumber
	}
	if in.Company != "" {
		r.Company = in.Company
	}
	if in.Subject != "" {
		r.Subject = in.Subject
	}
	if in.From != "" {
		r.From = in.From
	}
	if in.DateReceived != "" {
		r.DateReceived = in.DateReceived
	}
	if len(in.Items) > 0 {
		r.Items = in.Items
	}
	if in.Status != "" {
		r.Status = in.Status
	}
	if in.DeliveredBy != "" {
		r.DeliveredBy = in.DeliveredBy
	}
	if len(in.Events) > 0 {
		r.Events = in.Events
	}
	if in.LatestEvent != nil {
		r.LatestEvent = in.LatestEvent
	}
}
