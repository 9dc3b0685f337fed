package orders

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/97Cweb/package-scraper/config"
	"github.com/97Cweb/package-scraper/notify"
	"github.com/97Cweb/package-scraper/workers/orders/ingest"
	"github.com/97Cweb/package-scraper/workers/orders/ingest/extract"
	"github.com/97Cweb/package-scraper/workers/orders/repositories"
	"github.com/97Cweb/package-scraper/workers/orders/tracking"
	"github.com/97Cweb/package-scraper/workers/orders/watchlist"
)

// Worker runs the whole scan cycle: ingest new order emails, merge them
// into the order store, reconcile tracking status and rewrite the watch
// list. One cycle is strictly sequential; the busy flag keeps the cron
// schedule from stacking runs.
type Worker struct {
	logger        *zap.Logger
	cfg           *config.Config
	orders        *repositories.OrderStore
	checkpoints   *repositories.CheckpointStore
	watchlistPath string
	extractor     extract.Extractor
	reconciler    *tracking.Reconciler
	dial          func() (ingest.MessageSource, error)
	busy          bool
}

func NewWorker(logger *zap.Logger, cfg *config.Config) *Worker {
	mailer := notify.NewMailer(logger, cfg.SMTP, cfg.NotifyAddress)
	return &Worker{
		logger:        logger,
		cfg:           cfg,
		orders:        repositories.NewOrderStore(filepath.Join(cfg.DataDirectory, "orders.json")),
		checkpoints:   repositories.NewCheckpointStore(filepath.Join(cfg.DataDirectory, "last_scan_date.txt")),
		watchlistPath: filepath.Join(cfg.DataDirectory, "watchlist.json"),
		extractor:     extract.NewOpenAIExtractor(cfg.OpenAI),
		reconciler:    tracking.NewReconciler(logger, tracking.NewClient(cfg.ParcelsApp), mailer, cfg.ParcelsApp),
		dial: func() (ingest.MessageSource, error) {
			return ingest.DialMailbox(cfg.Mailbox.Server, cfg.Mailbox.Username, cfg.Mailbox.Password)
		},
	}
}

func (w *Worker) Schedule() string {
	return w.cfg.Schedule
}

func (w *Worker) Ready(time.Time) bool {
	return !w.busy
}

func (w *Worker) Execute(ctx context.Context) {
	w.busy = true
	defer func() {
		w.busy = false
	}()

	if err := w.RunOnce(ctx, false); err != nil {
		return
	}
}

// RunOnce executes a single scan cycle. With scanAll set the checkpoint
// is ignored and the whole folder is rescanned; the merge makes the
// rescan idempotent.
func (w *Worker) RunOnce(ctx context.Context, scanAll bool) error {
	logger := w.logger.With(zap.String("run_id", uuid.New().String()))
	logger.Info("Starting order scan.")

	var boundary *time.Time
	if !scanAll {
		checkpoint, ok, err := w.checkpoints.Load()
		if err != nil {
			logger.Warn("Checkpoint unreadable, scanning everything", zap.Error(err))
		}
		if ok {
			boundary = &checkpoint
		}
	}

	source, err := w.dial()
	if err != nil {
		logger.Error("Failed to connect to the email server", zap.Error(err))
		return err
	}
	defer source.Close()

	pipeline := ingest.NewPipeline(logger, source, w.extractor, w.cfg.Mailbox)
	result, err := pipeline.Ingest(ctx, boundary)
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		return err
	}

	records, err := w.orders.Load()
	if err != nil {
		logger.Error("Failed to load order store", zap.Error(err))
		return err
	}

	if len(result.Records) > 0 {
		records = repositories.Merge(records, result.Records)
		if err := w.orders.Save(records); err != nil {
			logger.Error("Failed to save order store", zap.Error(err))
			return err
		}
		// Only advance the boundary once the records are durable, and
		// never when the run produced nothing.
		if err := w.checkpoints.Save(result.MaxObserved); err != nil {
			logger.Error("Failed to save checkpoint", zap.Error(err))
		}
		logger.Info("Ingested new orders",
			zap.Int("records", len(result.Records)),
			zap.Int("candidates", result.Candidates),
			zap.Int("skipped", result.Skipped),
		)
	} else {
		logger.Info("No new orders found", zap.Int("candidates", result.Candidates))
	}

	reconciled, outcome, err := w.reconciler.Reconcile(ctx, records)
	if err != nil {
		// The store keeps its pre-reconcile contents; the next run
		// retries the whole cycle.
		logger.Error("Tracking reconciliation failed", zap.Error(err))
	} else {
		records = reconciled
		if outcome.Resolved > 0 {
			if err := w.orders.Save(records); err != nil {
				logger.Error("Failed to save order store", zap.Error(err))
				return err
			}
		}
		logger.Info("Tracking reconciled",
			zap.String("state", outcome.State.String()),
			zap.Int("eligible", outcome.Eligible),
			zap.Int("resolved", outcome.Resolved),
			zap.Int("notified", outcome.Notified),
		)
	}

	if err := watchlist.Write(w.watchlistPath, records); err != nil {
		logger.Error("Failed to write watch list", zap.Error(err))
		return err
	}

	logger.Info("Order work completed 😴")
	return nil
}

// Review runs the interactive manual override: each watched order can
// be forced to archive with a yes answer. Changes are saved through the
// same store the pipeline uses, and the watch list is rewritten.
func (w *Worker) Review(in io.Reader, out io.Writer) error {
	records, err := w.orders.Load()
	if err != nil {
		return err
	}

	updated, archived := watchlist.Review(in, out, records)
	if archived == 0 {
		fmt.Fprintln(out, "Nothing archived.")
		return nil
	}

	if err := w.orders.Save(updated); err != nil {
		return err
	}
	fmt.Fprintf(out, "Archived %d order(s).\n", archived)
	return watchlist.Write(w.watchlistPath, updated)
}
