package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderRecord_Terminal(t *testing.T) {
	assert.True(t, OrderRecord{Status: "delivered"}.Terminal())
	assert.True(t, OrderRecord{Status: "Delivered"}.Terminal())
	assert.True(t, OrderRecord{Status: "ARCHIVE"}.Terminal())
	assert.False(t, OrderRecord{Status: "in transit"}.Terminal())
	assert.False(t, OrderRecord{}.Terminal())
}

func TestOrderRecord_Trackable(t *testing.T) {
	assert.True(t, OrderRecord{TrackingNumber: "TN1", Status: "shipped"}.Trackable())
	assert.False(t, OrderRecord{Status: "shipped"}.Trackable(), "no tracking number")
	assert.False(t, OrderRecord{TrackingNumber: "TN1", Status: "delivered"}.Trackable())
	assert.False(t, OrderRecord{TrackingNumber: "TN1", Status: "archive"}.Trackable())
}

func TestOrderRecord_Apply_PreservesMissingFields(t *testing.T) {
	existing := OrderRecord{
		OrderNumber:    "A",
		TrackingNumber: "T1",
		Status:         "new",
		Events:         []TrackingEvent{{Status: "accepted"}},
	}

	existing.Apply(OrderRecord{OrderNumber: "A", Status: "shipped"})

	assert.Equal(t, "T1", existing.TrackingNumber, "tracking number not re-populated must survive")
	assert.Equal(t, "shipped", existing.Status)
	assert.Len(t, existing.Events, 1, "computed events must survive a re-extraction")
}

func TestOrderRecord_Apply_OverwritesPresentFields(t *testing.T) {
	existing := OrderRecord{OrderNumber: "A", Company: "Acme", Status: "new"}

	existing.Apply(OrderRecord{
		OrderNumber:    "A",
		TrackingNumber: "T9",
		Company:        "Globex",
		Items:          []string{"widget"},
		LatestEvent:    &TrackingEvent{Status: "out for delivery"},
	})

	assert.Equal(t, "T9", existing.TrackingNumber)
	assert.Equal(t, "Globex", existing.Company)
	assert.Equal(t, "new", existing.Status, "absent incoming status leaves existing alone")
	assert.Equal(t, []string{"widget"}, existing.Items)
	assert.Equal(t, "out for delivery", existing.LatestEvent.Status)
}
