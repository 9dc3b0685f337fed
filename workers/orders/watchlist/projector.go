package watchlist

import (
	"encoding/json"
	"fmt"

	"github.com/97Cweb/package-scraper/workers/orders/models"
	"github.com/97Cweb/package-scraper/workers/orders/repositories"
)

// Project returns the records still worth watching: everything whose
// status is not terminal. Pure and read-only; callers must not depend
// on the order of the result beyond it following the input.
func Project(records []models.OrderRecord) []models.OrderRecord {
	watched := make([]models.OrderRecord, 0, len(records))
	for _, record := range records {
		if record.Terminal() {
			continue
		}
		watched = append(watched, record)
	}
	return watched
}

// Write overwrites the watch-list artifact with the projection of the
// given records.
func Write(path string, records []models.OrderRecord) error {
	data, err := json.MarshalIndent(Project(records), "", "    ")
	if err != nil {
		return fmt.Errorf("encode watch list: %w", err)
	}
	return repositories.WriteFileAtomic(path, data)
}
