package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/97Cweb/package-scraper/config"
	"github.com/97Cweb/package-scraper/workers/orders/ingest/extract"
	"github.com/97Cweb/package-scraper/workers/orders/models"
)

// Pipeline scans a mail folder for order-confirmation emails and turns
// them into order records via the extraction service. One bad message
// never aborts a batch; per-item failures are logged and skipped.
type Pipeline struct {
	logger    *zap.Logger
	source    MessageSource
	extractor extract.Extractor
	cfg       *config.MailboxConfig
}

// Result is the outcome of one ingestion run. MaxObserved is the newest
// send timestamp among produced records and stays zero when no record
// was produced, so the caller knows not to move the checkpoint.
type Result struct {
	Records     []models.OrderRecord
	MaxObserved time.Time
	Candidates  int
	Skipped     int
}

func NewPipeline(logger *zap.Logger, source MessageSource, extractor extract.Extractor, cfg *config.MailboxConfig) *Pipeline {
	return &Pipeline{
		logger:    logger,
		source:    source,
		extractor: extractor,
		cfg:       cfg,
	}
}

// Ingest fetches every candidate message newer than boundary and
// extracts order records from them. A nil boundary means a full
// backfill over the whole folder.
func (p *Pipeline) Ingest(ctx context.Context, boundary *time.Time) (*Result, error) {
	if err := p.source.Select(p.cfg.Folder); err != nil {
		return nil, err
	}

	ids, err := p.source.SearchAll()
	if err != nil {
		return nil, err
	}
	p.logger.Info("Found emails", zap.Int("count", len(ids)))

	candidates := p.eligible(ids, boundary)
	result := &Result{Candidates: len(candidates)}

	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, ok := p.processMessage(ctx, id)
		if !ok {
			result.Skipped++
			continue
		}

		result.Records = append(result.Records, *record)
		if date, err := time.Parse(time.RFC3339, record.DateReceived); err == nil && date.After(result.MaxObserved) {
			result.MaxObserved = date
		}
	}

	return result, nil
}

// eligible filters message ids down to those newer than boundary,
// walking newest-first. With ShortCircuit set the walk stops at the
// first message not newer than the boundary, trusting the server to
// return messages in date order.
func (p *Pipeline) eligible(ids []uint32, boundary *time.Time) []uint32 {
	if boundary == nil {
		return ids
	}

	var filtered []uint32
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		date, err := p.source.FetchDate(id)
		if err != nil {
			p.logger.Warn("Failed to fetch email date",
				zap.Uint32("id", id),
				zap.Error(err),
			)
			continue
		}
		if date.After(*boundary) {
			filtered = append(filtered, id)
			continue
		}
		if p.cfg.ShortCircuit {
			break
		}
	}
	return filtered
}

// processMessage fetches, filters and extracts a single candidate.
// ok is false whenever the message produced no record, for any reason.
func (p *Pipeline) processMessage(ctx context.Context, id uint32) (*models.OrderRecord, bool) {
	raw, err := p.source.FetchFull(id)
	if err != nil {
		p.logger.Warn("Failed to fetch email", zap.Uint32("id", id), zap.Error(err))
		return nil, false
	}

	if sender := p.ignoredSender(raw.From); sender != "" {
		p.logger.Info("Ignored email from filtered sender",
			zap.Uint32("id", id),
			zap.String("from", raw.From),
			zap.String("filter", sender),
		)
		return nil, false
	}

	extraction, err := p.extractor.Extract(ctx, extract.EmailContent{
		Subject: raw.Subject,
		From:    raw.From,
		Body:    CleanBody(raw.Body),
	})
	if errors.Is(err, extract.ErrNoOrder) {
		p.logger.Info("No order number found", zap.Uint32("id", id), zap.String("subject", raw.Subject))
		return nil, false
	}
	if err != nil {
		p.logger.Warn("Extraction failed", zap.Uint32("id", id), zap.Error(err))
		return nil, false
	}

	record := &models.OrderRecord{
		OrderNumber:    extraction.OrderNumber,
		TrackingNumber: extraction.TrackingNumber,
		Company:        extraction.Company,
		Status:         extraction.Status,
		Items:          extraction.Items,
		Subject:        raw.Subject,
		From:           raw.From,
	}
	if !raw.Date.IsZero() {
		record.DateReceived = raw.Date.Format(time.RFC3339)
	}
	return record, true
}

func (p *Pipeline) ignoredSender(from string) string {
	lowered := strings.ToLower(from)
	for _, domain := range p.cfg.IgnoredSenders {
		if strings.Contains(lowered, strings.ToLower(domain)) {
			return domain
		}
	}
	return ""
}
