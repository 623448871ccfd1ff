package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Options configures New
type Options struct {
	Tracker        Tracker
	Gateway        Gateway // nil disables persistence
	Mode           measurement.Mode
	Projection     measurement.Projection
	CloseThreshold float64 // pixels
	QueueSize      int     // pending captures before Capture blocks
	Logger         *zap.Logger
	Now            func() time.Time

	// OnChange is the rendering hook, called after every vertex change
	OnChange measurement.Observer
	// OnSaved is called from the persistence goroutine after each save
	OnSaved func(store.Entry)
}

// App drives one measurement at a time from touch events.
// Its methods must be called from a single goroutine.
type App struct {
	measure     *measurement.Measure
	tracker     Tracker
	detector    measurement.CloseDetector
	log         *zap.Logger
	now         func() time.Time
	interaction InteractionState
	persister   *persister
}

// New creates an App. Captures are accepted for saving until ctx is done or
// Close is called; Close waits for the accepted ones.
func New(ctx context.Context, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{
		tracker:  opts.Tracker,
		detector: measurement.CloseDetector{Threshold: opts.CloseThreshold},
		log:      opts.Logger,
		now:      opts.Now,
	}
	a.measure = measurement.New(
		measurement.WithMode(opts.Mode),
		measurement.WithProjection(opts.Projection),
		measurement.WithObserver(func(ev measurement.Event) {
			a.log.Debug("measure changed",
				zap.Stringer("event", ev.Kind), zap.Int("vertices", ev.Count), zap.Bool("closed", ev.Closed))
		}),
		measurement.WithObserver(opts.OnChange),
	)
	if opts.Gateway != nil {
		a.persister = newPersister(ctx, opts.Gateway, opts.QueueSize, opts.Logger, opts.OnSaved)
	}
	return a
}

// Close waits for pending captures to be saved and reports the first
// capture that could not be saved
func (a *App) Close() error {
	if a.persister == nil {
		return nil
	}
	return a.persister.close()
}

// Vertices returns the placed vertices in order
func (a *App) Vertices() []geometry.Vector3 { return a.measure.Positions() }

// IsEmpty reports whether no vertex has been placed
func (a *App) IsEmpty() bool { return a.measure.IsEmpty() }

// IsClosed reports whether the current polygon is closed
func (a *App) IsClosed() bool { return a.measure.IsClosed() }

// Result returns the geometry of the closed polygon
func (a *App) Result() (measurement.Result, bool) { return a.measure.Result() }

// Recent returns the most recently saved measurement of this run
func (a *App) Recent(ctx context.Context) (store.Entry, error) {
	if a.persister == nil {
		return store.Entry{}, store.ErrNotFound
	}
	return a.persister.gateway.Recent(ctx)
}

// Undo removes the last committed vertex
func (a *App) Undo() bool {
	a.interaction.tentative = false
	return a.measure.Undo()
}

// Reset discards the current polygon
func (a *App) Reset() {
	a.interaction = InteractionState{}
	a.measure.Reset()
}

// CloseMeasure closes the current polygon explicitly, without a gesture
func (a *App) CloseMeasure() (measurement.Result, error) {
	if a.interaction.tentative {
		a.measure.Undo()
		a.interaction.tentative = false
	}
	res, err := a.measure.Close()
	if err != nil {
		a.log.Warn("cannot close measure", zap.Error(err))
		return res, err
	}
	a.logResult(res)
	return res, nil
}

func (a *App) logResult(res measurement.Result) {
	a.log.Info("measure closed",
		zap.Int("vertices", res.Vertices),
		zap.Float64("perimeter", res.Perimeter),
		zap.Float64("area", res.Area))
}
