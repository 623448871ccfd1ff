package app

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
)

// ErrPersisterClosed is returned by Capture after Close or once the
// context given to New is done
var ErrPersisterClosed = errors.New("persistence is closed")

const defaultQueueSize = 16

// Capture copies the current measurement into a Record and queues it for
// saving. An empty screenshotName defaults to the capture time in RFC3339.
// The returned Record is independent of the live engine.
func (a *App) Capture(ctx context.Context, screenshotName string) (measurement.Record, error) {
	at := a.now()
	if screenshotName == "" {
		screenshotName = at.UTC().Format(time.RFC3339Nano)
	}

	if a.interaction.tentative {
		a.measure.Undo()
		a.interaction.tentative = false
	}
	rec, err := a.measure.Snapshot(a.tracker, screenshotName, at)
	if err != nil {
		a.log.Warn("nothing to capture", zap.Error(err))
		return measurement.Record{}, err
	}

	if a.persister != nil {
		if err := a.persister.enqueue(ctx, rec); err != nil {
			return rec, err
		}
	}
	a.log.Info("captured measure",
		zap.String("screenshot", rec.ScreenshotName),
		zap.Int("vertices", len(rec.WorldCoordinates)),
		zap.Bool("closed", rec.Closed))
	return rec, nil
}

// persister is the single writer that drains captured records into the
// gateway. It stops accepting records once its context is done; records
// already accepted are still saved.
type persister struct {
	ctx     context.Context
	gateway Gateway
	queue   chan measurement.Record
	group   errgroup.Group
	log     *zap.Logger
	onSaved func(store.Entry)

	mu     sync.Mutex
	closed bool
}

func newPersister(ctx context.Context, gw Gateway, size int, log *zap.Logger, onSaved func(store.Entry)) *persister {
	if size <= 0 {
		size = defaultQueueSize
	}
	p := &persister{
		ctx:     ctx,
		gateway: gw,
		queue:   make(chan measurement.Record, size),
		log:     log,
		onSaved: onSaved,
	}
	p.group.Go(p.run)
	return p
}

// run saves until the queue is closed and returns the first failure
func (p *persister) run() error {
	ctx := context.WithoutCancel(p.ctx)
	var firstErr error
	failed := 0
	for rec := range p.queue {
		entry, err := p.gateway.Save(ctx, rec)
		if err != nil {
			p.log.Error("failed to save measurement",
				zap.String("screenshot", rec.ScreenshotName), zap.Error(err))
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "while saving %q", rec.ScreenshotName)
			}
			failed++
			continue
		}
		if p.onSaved != nil {
			p.onSaved(entry)
		}
	}
	if failed > 1 {
		return errors.Wrapf(firstErr, "%d measurements were not saved", failed)
	}
	return firstErr
}

func (p *persister) enqueue(ctx context.Context, rec measurement.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.ctx.Err() != nil {
		return ErrPersisterClosed
	}
	select {
	case p.queue <- rec:
		return nil
	case <-p.ctx.Done():
		return ErrPersisterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting records and waits until the accepted ones are saved
func (p *persister) close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	return p.group.Wait()
}
