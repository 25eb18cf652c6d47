package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bodekasse/internal/amqp"
	"bodekasse/internal/core"
	"bodekasse/internal/log"
	"bodekasse/internal/store"
)

// Source is where the mirror reads the authoritative datasets.
type Source interface {
	store.MemberLoader
	store.FineLoader
}

// Target receives full copies of both datasets.
type Target interface {
	store.MemberSaver
	store.FineSaver
}

// MirrorWorker copies the roster and the ledger from the primary store to
// a secondary one (the club's read-only spreadsheet). Events only trigger a
// copy; their payload is never trusted as state.
type MirrorWorker struct {
	source Source
	target Target
	logger *log.Logger

	// Serializes mirrors started by the consumer and the ticker.
	mu sync.Mutex
}

func NewMirrorWorker(source Source, target Target, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentWorker)
	}
	return &MirrorWorker{source: source, target: target, logger: logger}
}

// Mirror loads both datasets and overwrites the target with them.
func (w *MirrorWorker) Mirror(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	var (
		members []core.Member
		fines   []core.Fine
	)
	load, lctx := errgroup.WithContext(ctx)
	load.Go(func() (err error) {
		members, err = w.source.LoadMembers(lctx)
		return err
	})
	load.Go(func() (err error) {
		fines, err = w.source.LoadFines(lctx)
		return err
	})
	if err := load.Wait(); err != nil {
		return fmt.Errorf("load primary store: %w", err)
	}

	save, sctx := errgroup.WithContext(ctx)
	save.Go(func() error { return w.target.SaveMembers(sctx, members) })
	save.Go(func() error { return w.target.SaveFines(sctx, fines) })
	if err := save.Wait(); err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirror completed",
		"members", len(members),
		"fines", len(fines),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// HandleLedgerEvent mirrors after any ledger change. A returned error makes
// the consumer requeue the event.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventType, ev.Type,
		log.FieldMember, ev.Member)
	return w.Mirror(ctx)
}

// RunPeriodic mirrors every interval until ctx is done. Failures are logged
// and retried on the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Mirror(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic mirror failed", log.FieldError, err)
			}
		}
	}
}
