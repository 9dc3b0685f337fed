package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/97Cweb/package-scraper/workers/orders/models"
)

func TestProject_FiltersTerminalStatuses(t *testing.T) {
	records := []models.OrderRecord{
		{OrderNumber: "A", Status: "delivered"},
		{OrderNumber: "B", Status: "pending"},
		{OrderNumber: "C", Status: "archive"},
		{OrderNumber: "D", Status: "in transit"},
	}

	watched := Project(records)

	require.Len(t, watched, 2)
	assert.Equal(t, "B", watched[0].OrderNumber)
	assert.Equal(t, "D", watched[1].OrderNumber)
}

func TestProject_CaseInsensitive(t *testing.T) {
	records := []models.OrderRecord{
		{OrderNumber: "A", Status: "Delivered"},
		{OrderNumber: "B", Status: "ARCHIVE"},
	}

	assert.Empty(t, Project(records))
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	records := []models.OrderRecord{
		{OrderNumber: "A", Status: "delivered"},
		{OrderNumber: "B", Status: "pending"},
	}

	Project(records)

	assert.Equal(t, "delivered", records[0].Status)
	assert.Len(t, records, 2)
}

func TestWrite_OverwritesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	records := []models.OrderRecord{
		{OrderNumber: "A", Status: "delivered"},
		{OrderNumber: "B", Status: "pending"},
	}

	require.NoError(t, Write(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var watched []models.OrderRecord
	require.NoError(t, json.Unmarshal(data, &watched))
	require.Len(t, watched, 1)
	assert.Equal(t, "B", watched[0].OrderNumber)
}
