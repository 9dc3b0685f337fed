package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/97Cweb/package-scraper/config"
	"github.com/97Cweb/package-scraper/workers/orders/ingest/extract"
)

type fakeSource struct {
	messages   map[uint32]*RawMessage
	order      []uint32
	dateCalls  int
	fetchCalls int
}

func (s *fakeSource) Select(string) error { return nil }

func (s *fakeSource) SearchAll() ([]uint32, error) { return s.order, nil }

func (s *fakeSource) FetchDate(id uint32) (time.Time, error) {
	s.dateCalls++
	msg, ok := s.messages[id]
	if !ok {
		return time.Time{}, fmt.Errorf("no message %d", id)
	}
	return msg.Date, nil
}

func (s *fakeSource) FetchFull(id uint32) (*RawMessage, error) {
	s.fetchCalls++
	msg, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("no message %d", id)
	}
	return msg, nil
}

func (s *fakeSource) Close() error { return nil }

// fakeExtractor answers from a canned map keyed by subject.
type fakeExtractor struct {
	results     map[string]*extract.Extraction
	failSubject string
	calls       int
}

func (e *fakeExtractor) Extract(_ context.Context, content extract.EmailContent) (*extract.Extraction, error) {
	e.calls++
	if e.failSubject != "" && content.Subject == e.failSubject {
		return nil, errors.New("model timeout")
	}
	if result, ok := e.results[content.Subject]; ok {
		return result, nil
	}
	return nil, extract.ErrNoOrder
}

func day(n int) time.Time {
	return time.Date(2025, 3, n, 12, 0, 0, 0, time.UTC)
}

func mailboxConfig() *config.MailboxConfig {
	return &config.MailboxConfig{
		Folder:         "INBOX",
		IgnoredSenders: []string{"paypal.com"},
	}
}

func TestPipeline_FullBackfillWithoutBoundary(t *testing.T) {
	source := &fakeSource{
		order: []uint32{1, 2},
		messages: map[uint32]*RawMessage{
			1: {Subject: "order one", From: "shop@acme.com", Date: day(1)},
			2: {Subject: "order two", From: "shop@acme.com", Date: day(2)},
		},
	}
	extractor := &fakeExtractor{results: map[string]*extract.Extraction{
		"order one": {OrderNumber: "A1"},
		"order two": {OrderNumber: "A2"},
	}}
	pipeline := NewPipeline(zap.NewNop(), source, extractor, mailboxConfig())

	result, err := pipeline.Ingest(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, result.Records, 2)
	assert.Equal(t, 0, source.dateCalls, "no boundary means no per-message date probe")
	assert.True(t, result.MaxObserved.Equal(day(2)))
}

func TestPipeline_BoundaryFiltersOldMessages(t *testing.T) {
	source := &fakeSource{
		order: []uint32{1, 2, 3},
		messages: map[uint32]*RawMessage{
			1: {Subject: "old", From: "shop@acme.com", Date: day(1)},
			2: {Subject: "newer", From: "shop@acme.com", Date: day(3)},
			3: {Subject: "newest", From: "shop@acme.com", Date: day(5)},
		},
	}
	extractor := &fakeExtractor{results: map[string]*extract.Extraction{
		"newer":  {OrderNumber: "B1"},
		"newest": {OrderNumber: "B2"},
	}}
	pipeline := NewPipeline(zap.NewNop(), source, extractor, mailboxConfig())

	boundary := day(2)
	result, err := pipeline.Ingest(context.Background(), &boundary)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 3, source.dateCalls, "exhaustive scan probes every candidate")
	assert.True(t, result.MaxObserved.Equal(day(5)))
}

func TestPipeline_ShortCircuitStopsAtBoundary(t *testing.T) {
	source := &fakeSource{
		order: []uint32{1, 2, 3},
		messages: map[uint32]*RawMessage{
			1: {Subject: "old", From: "shop@acme.com", Date: day(1)},
			2: {Subject: "older", From: "shop@acme.com", Date: day(2)},
			3: {Subject: "newest", From: "shop@acme.com", Date: day(5)},
		},
	}
	extractor := &fakeExtractor{results: map[string]*extract.Extraction{
		"newest": {OrderNumber: "C1"},
	}}
	cfg := mailboxConfig()
	cfg.ShortCircuit = true
	pipeline := NewPipeline(zap.NewNop(), source, extractor, cfg)

	boundary := day(3)
	result, err := pipeline.Ingest(context.Background(), &boundary)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, 2, source.dateCalls, "walk stops at the first message not newer than the boundary")
}

func TestPipeline_IgnoredSenderSkipsExtraction(t *testing.T) {
	source := &fakeSource{
		order: []uint32{1, 2},
		messages: map[uint32]*RawMessage{
			1: {Subject: "receipt", From: "service@PayPal.com", Date: day(1)},
			2: {Subject: "order", From: "shop@acme.com", Date: day(2)},
		},
	}
	extractor := &fakeExtractor{results: map[string]*extract.Extraction{
		"order": {OrderNumber: "D1"},
	}}
	pipeline := NewPipeline(zap.NewNop(), source, extractor, mailboxConfig())

	result, err := pipeline.Ingest(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, extractor.calls, "filtered senders never reach the extraction service")
	assert.Equal(t, 1, result.Skipped)
}

func TestPipeline_ExtractionFailureIsPerItem(t *testing.T) {
	source := &fakeSource{
		order: []uint32{1, 2},
		messages: map[uint32]*RawMessage{
			1: {Subject: "broken", From: "shop@acme.com", Date: day(1)},
			2: {Subject: "order", From: "shop@acme.com", Date: day(2)},
		},
	}
	extractor := &fakeExtractor{
		failSubject: "broken",
		results: map[string]*extract.Extraction{
			"order": {OrderNumber: "E1"},
		},
	}
	pipeline := NewPipeline(zap.NewNop(), source, extractor, mailboxConfig())

	result, err := pipeline.Ingest(context.Background(), nil)
	require.NoError(t, err, "one bad message must never abort the batch")

	require.Len(t, result.Records, 1)
	assert.Equal(t, "E1", result.Records[0].OrderNumber)
}

func TestPipeline_NoRecordsLeavesMaxObservedZero(t *testing.T) {
	source := &fakeSource{
		order: []uint32{1},
		messages: map[uint32]*RawMessage{
			1: {Subject: "newsletter", From: "news@acme.com", Date: day(4)},
		},
	}
	extractor := &fakeExtractor{}
	pipeline := NewPipeline(zap.NewNop(), source, extractor, mailboxConfig())

	result, err := pipeline.Ingest(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.True(t, result.MaxObserved.IsZero(), "checkpoint must not move when nothing was extracted")
}

func TestPipeline_TransportErrorAbortsRun(t *testing.T) {
	pipeline := NewPipeline(zap.NewNop(), &failingSource{}, &fakeExtractor{}, mailboxConfig())

	_, err := pipeline.Ingest(context.Background(), nil)
	assert.Error(t, err)
}

type failingSource struct{ fakeSource }

func (s *failingSource) SearchAll() ([]uint32, error) {
	return nil, errors.New("connection reset")
}
