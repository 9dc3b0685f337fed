package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/97Cweb/package-scraper/workers/orders/models"
)

// OrderStore is the flat-file collection of order records, one record per
// order number. The whole file is rewritten atomically on every save.
type OrderStore struct {
	path string
}

func NewOrderStore(path string) *OrderStore {
	return &OrderStore{path: path}
}

// Load reads all persisted records. A missing file is an empty store.
func (s *OrderStore) Load() ([]models.OrderRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read order store: %w", err)
	}

	var records []models.OrderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse order store: %w", err)
	}
	return records, nil
}

// Save replaces the store contents. Records without an order number are
// dropped rather than persisted.
func (s *OrderStore) Save(records []models.OrderRecord) error {
	keep := make([]models.OrderRecord, 0, len(records))
	for _, record := range records {
		if record.OrderNumber == "" {
			continue
		}
		keep = append(keep, record)
	}

	data, err := json.MarshalIndent(keep, "", "    ")
	if err != nil {
		return fmt.Errorf("encode order store: %w", err)
	}
	return WriteFileAtomic(s.path, data)
}

// Merge folds incoming records into existing ones by order number.
// Matching records are updated field-wise so fields the incoming record
// does not re-populate are preserved; unknown order numbers are inserted.
// Incoming records without an order number are dropped. Output order is
// unspecified.
func Merge(existing, incoming []models.OrderRecord) []models.OrderRecord {
	indexed := make(map[string]models.OrderRecord, len(existing))
	order := make([]string, 0, len(existing))
	for _, record := range existing {
		if record.OrderNumber == "" {
			continue
		}
		if _, seen := indexed[record.OrderNumber]; !seen {
			order = append(order, record.OrderNumber)
		}
		indexed[record.OrderNumber] = record
	}

	for _, record := range incoming {
		if record.OrderNumber == "" {
			continue
		}
		if current, ok := indexed[record.OrderNumber]; ok {
			current.Apply(record)
			indexed[record.OrderNumber] = current
			continue
		}
		indexed[record.OrderNumber] = record
		order = append(order, record.OrderNumber)
	}

	merged := make([]models.OrderRecord, 0, len(indexed))
	for _, key := range order {
		merged = append(merged, indexed[key])
	}
	return merged
}
