package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/geometry"
	"github.com/philipparndt/armeasure/pkg/viewer"
)

// topDownTracker looks straight down at the floor at 100 px per meter.
// Touches with a negative X miss.
type topDownTracker struct{}

func (topDownTracker) WorldPosition(screen geometry.Vector2) (geometry.Vector3, bool) {
	if screen.X < 0 {
		return geometry.Vector3{}, false
	}
	return geometry.NewVector3(screen.X/100, 0, screen.Y/100), true
}

func (topDownTracker) Project(p geometry.Vector3) geometry.Vector2 {
	return geometry.NewVector2(p.X*100, p.Z*100)
}

type fakeGateway struct {
	mu    sync.Mutex
	saved []measurement.Record
	fail  bool
	gate  chan struct{} // Save waits for it when set
}

func (g *fakeGateway) Save(ctx context.Context, rec measurement.Record) (store.Entry, error) {
	if g.gate != nil {
		<-g.gate
	}
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return store.Entry{}, errors.New("disk full")
	}
	g.saved = append(g.saved, rec)
	return store.Entry{ID: rec.ScreenshotName, Seq: uint64(len(g.saved)), Record: rec}, nil
}

func (g *fakeGateway) Recent(ctx context.Context) (store.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.saved) == 0 {
		return store.Entry{}, store.ErrNotFound
	}
	rec := g.saved[len(g.saved)-1]
	return store.Entry{ID: rec.ScreenshotName, Record: rec}, nil
}

func pt(x, y float64) geometry.Vector2 { return geometry.NewVector2(x, y) }

func tap(a *App, p geometry.Vector2) (measurement.Result, bool) {
	a.TouchBegan(p)
	return a.TouchEnded(p)
}

func newTestApp(t *testing.T, opts Options) *App {
	if opts.Tracker == nil {
		opts.Tracker = topDownTracker{}
	}
	a := New(context.Background(), opts)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestTapsBuildPolygonAndClose(t *testing.T) {
	a := newTestApp(t, Options{})

	for _, p := range []geometry.Vector2{pt(0, 0), pt(200, 0), pt(200, 100), pt(0, 100)} {
		_, closed := tap(a, p)
		require.False(t, closed)
	}
	require.Len(t, a.Vertices(), 4)

	// 5 px from the first vertex
	res, closed := tap(a, pt(3, 4))
	require.True(t, closed)
	require.True(t, a.IsClosed())
	require.Len(t, a.Vertices(), 4, "the closing tap adds no vertex")
	require.InDelta(t, 2.0, res.Area, 1e-9)
	require.InDelta(t, 6.0, res.Perimeter, 1e-9)

	got, ok := a.Result()
	require.True(t, ok)
	require.Equal(t, res, got)

	// the next touch starts over
	a.TouchBegan(pt(50, 50))
	require.True(t, a.IsEmpty())
	require.False(t, a.IsClosed())
	a.TouchEnded(pt(50, 50))
	require.Equal(t, []geometry.Vector3{geometry.NewVector3(0.5, 0, 0.5)}, a.Vertices())
}

func TestTapNearFirstVertexBeforeClosableAddsVertex(t *testing.T) {
	a := newTestApp(t, Options{})

	tap(a, pt(0, 0))
	tap(a, pt(100, 0))
	_, closed := tap(a, pt(2, 2))
	require.False(t, closed)
	require.Len(t, a.Vertices(), 3)
}

func TestDragMovesTentativeVertex(t *testing.T) {
	a := newTestApp(t, Options{})
	tap(a, pt(0, 0))

	a.TouchBegan(pt(100, 0))
	require.Len(t, a.Vertices(), 2)
	for _, x := range []float64{110, 120, 130} {
		a.TouchMoved(pt(x, 0))
		require.Len(t, a.Vertices(), 2, "dragging keeps exactly one live vertex")
		require.Equal(t, geometry.NewVector3(x/100, 0, 0), a.Vertices()[1])
	}
	a.TouchEnded(pt(150, 0))

	require.Equal(t, []geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1.5, 0, 0),
	}, a.Vertices())
}

func TestMissedHitTestLeavesStateAlone(t *testing.T) {
	a := newTestApp(t, Options{})

	// a miss on the very first tap adds nothing
	tap(a, pt(-10, 0))
	require.True(t, a.IsEmpty())

	tap(a, pt(0, 0))
	tap(a, pt(100, 0))

	// began misses, so no tentative vertex; ended must not undo a committed one
	a.TouchBegan(pt(-5, 0))
	require.Len(t, a.Vertices(), 2)
	a.TouchMoved(pt(-6, 0))
	require.Len(t, a.Vertices(), 2)
	a.TouchEnded(pt(-7, 0))
	require.Len(t, a.Vertices(), 2)

	// a miss in the middle of a drag keeps the last good position
	a.TouchBegan(pt(100, 100))
	a.TouchMoved(pt(-1, 0))
	require.Equal(t, geometry.NewVector3(1, 0, 1), a.Vertices()[2])
	a.TouchEnded(pt(100, 100))
	require.Len(t, a.Vertices(), 3)
}

func TestTouchCancelledDropsTentativeVertex(t *testing.T) {
	a := newTestApp(t, Options{})
	tap(a, pt(0, 0))

	a.TouchBegan(pt(100, 0))
	require.Len(t, a.Vertices(), 2)
	a.TouchCancelled()
	require.Len(t, a.Vertices(), 1)
}

func TestUndoAndReset(t *testing.T) {
	a := newTestApp(t, Options{})
	require.False(t, a.Undo())

	tap(a, pt(0, 0))
	tap(a, pt(100, 0))
	require.True(t, a.Undo())
	require.Len(t, a.Vertices(), 1)

	a.Reset()
	require.True(t, a.IsEmpty())
	a.Reset()
	require.True(t, a.IsEmpty())
	require.False(t, a.IsClosed())
}

func TestCloseMeasure(t *testing.T) {
	a := newTestApp(t, Options{})
	tap(a, pt(0, 0))
	tap(a, pt(100, 0))

	_, err := a.CloseMeasure()
	require.ErrorIs(t, err, measurement.ErrInvalidState)
	require.False(t, a.IsClosed())

	tap(a, pt(100, 100))
	res, err := a.CloseMeasure()
	require.NoError(t, err)
	require.InDelta(t, 0.5, res.Area, 1e-9)
}

func TestCloseThreshold(t *testing.T) {
	a := newTestApp(t, Options{CloseThreshold: 5})
	tap(a, pt(0, 0))
	tap(a, pt(100, 0))
	tap(a, pt(100, 100))

	_, closed := tap(a, pt(6, 0))
	require.False(t, closed)
	require.Len(t, a.Vertices(), 4)
}

func TestOnChangeObserver(t *testing.T) {
	var events []measurement.EventKind
	a := newTestApp(t, Options{OnChange: func(ev measurement.Event) { events = append(events, ev.Kind) }})

	tap(a, pt(0, 0))
	a.TouchBegan(pt(100, 0))
	a.TouchMoved(pt(110, 0))
	a.TouchEnded(pt(120, 0))

	require.Equal(t, []measurement.EventKind{
		measurement.EventAdded, // first tap
		measurement.EventAdded, // tentative
		measurement.EventRemoved,
		measurement.EventAdded, // move
		measurement.EventRemoved,
		measurement.EventAdded, // commit
	}, events)
}

func TestCapturePersistsAsynchronously(t *testing.T) {
	gw := &fakeGateway{}
	saved := make(chan store.Entry, 4)
	now := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	a := newTestApp(t, Options{
		Gateway: gw,
		Now:     func() time.Time { return now },
		OnSaved: func(e store.Entry) { saved <- e },
	})
	ctx := context.Background()

	_, err := a.Capture(ctx, "")
	require.ErrorIs(t, err, measurement.ErrInvalidState, "nothing placed yet")

	for _, p := range []geometry.Vector2{pt(0, 0), pt(100, 0), pt(100, 100), pt(0, 100), pt(1, 1)} {
		tap(a, p)
	}
	require.True(t, a.IsClosed())

	rec, err := a.Capture(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "2026-10-18T08:00:00Z", rec.ScreenshotName)
	require.True(t, rec.Closed)
	require.InDelta(t, 1.0, rec.Area, 1e-9)
	require.Equal(t, []geometry.Vector2{pt(0, 0), pt(100, 0), pt(100, 100), pt(0, 100)}, rec.ScreenCoordinates)

	// mutating the engine afterwards does not touch the queued record
	a.TouchBegan(pt(50, 50))
	require.True(t, a.IsEmpty())

	select {
	case entry := <-saved:
		require.Equal(t, rec.ScreenshotName, entry.Record.ScreenshotName)
		require.Len(t, entry.Record.WorldCoordinates, 4)
	case <-time.After(5 * time.Second):
		t.Fatal("capture was not saved")
	}

	recent, err := a.Recent(ctx)
	require.NoError(t, err)
	require.Equal(t, rec.ScreenshotName, recent.Record.ScreenshotName)

	require.NoError(t, a.Close())
	_, err = a.Capture(ctx, "late")
	require.ErrorIs(t, err, measurement.ErrInvalidState, "engine is empty after the reset")

	tap(a, pt(0, 0))
	_, err = a.Capture(ctx, "late")
	require.ErrorIs(t, err, ErrPersisterClosed)
}

func TestCaptureDropsTentativeVertex(t *testing.T) {
	a := newTestApp(t, Options{})
	tap(a, pt(0, 0))
	a.TouchBegan(pt(100, 0))

	rec, err := a.Capture(context.Background(), "mid-drag")
	require.NoError(t, err)
	require.Len(t, rec.WorldCoordinates, 1)
	require.Len(t, a.Vertices(), 1)
}

func TestSaveFailureDoesNotAffectEngine(t *testing.T) {
	gw := &fakeGateway{fail: true}
	a := newTestApp(t, Options{Gateway: gw})
	ctx := context.Background()

	tap(a, pt(0, 0))
	tap(a, pt(100, 0))
	_, err := a.Capture(ctx, "doomed")
	require.NoError(t, err, "saving happens in the background")
	_, err = a.Capture(ctx, "doomed too")
	require.NoError(t, err)

	err = a.Close()
	require.ErrorContains(t, err, "2 measurements were not saved")
	require.ErrorContains(t, err, `while saving "doomed": disk full`)
	require.Error(t, a.Close(), "closing again keeps reporting the loss")
	require.Len(t, a.Vertices(), 2)
	_, err = a.Recent(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCancelledContextStopsCaptures(t *testing.T) {
	gw := &fakeGateway{gate: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := New(ctx, Options{Tracker: topDownTracker{}, Gateway: gw})

	tap(a, pt(0, 0))
	tap(a, pt(100, 0))
	tap(a, pt(100, 100))

	// accepted, its save is still waiting when the context goes away
	_, err := a.Capture(context.Background(), "before")
	require.NoError(t, err)
	cancel()

	for i := 0; i < 5; i++ {
		_, err = a.Capture(context.Background(), "after")
		require.ErrorIs(t, err, ErrPersisterClosed)
	}

	close(gw.gate)
	require.NoError(t, a.Close())
	require.Len(t, gw.saved, 1)
	require.Equal(t, "before", gw.saved[0].ScreenshotName)
}

func TestCancelledContextStillSavesAcceptedToStore(t *testing.T) {
	s, err := store.Open(store.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	a := New(ctx, Options{Tracker: topDownTracker{}, Gateway: s})
	tap(a, pt(0, 0))
	tap(a, pt(100, 0))
	tap(a, pt(100, 100))

	for _, name := range []string{"one", "two", "three"} {
		_, err = a.Capture(context.Background(), name)
		require.NoError(t, err)
	}
	cancel()
	_, err = a.Capture(context.Background(), "late")
	require.ErrorIs(t, err, ErrPersisterClosed)
	require.NoError(t, a.Close())

	session, ok := s.CurrentSession()
	require.True(t, ok)
	entries, err := s.Records(context.Background(), session.ID)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Record.ScreenshotName
	}
	require.Equal(t, []string{"one", "two", "three"}, names)
}

func TestRecentWithoutGateway(t *testing.T) {
	a := newTestApp(t, Options{})
	_, err := a.Recent(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHorizontalModeWithCameraAndStore(t *testing.T) {
	s, err := store.Open(store.Options{InMemory: true, RunID: "it"})
	require.NoError(t, err)
	defer s.Close()

	camera := viewer.NewCamera(geometry.NewVector3(0, 1.5, 2), geometry.NewVector3(0, 0, 0), 60, 1000, 800)
	tracker := viewer.NewPlaneTracker(camera, 0)
	a := New(context.Background(), Options{
		Tracker: tracker,
		Gateway: s,
		Mode:    measurement.ModeHorizontal,
	})

	corners := []geometry.Vector3{
		geometry.NewVector3(-0.5, 0, -0.5),
		geometry.NewVector3(0.5, 0, -0.5),
		geometry.NewVector3(0.5, 0, 0.5),
		geometry.NewVector3(-0.5, 0, 0.5),
	}
	for _, c := range corners {
		tap(a, tracker.Project(c))
	}
	first := tracker.Project(corners[0])
	res, closed := tap(a, pt(first.X+5, first.Y-5))
	require.True(t, closed)
	require.InDelta(t, 1.0, res.Area, 1e-6)
	require.InDelta(t, 4.0, res.Perimeter, 1e-6)

	_, err = a.Capture(context.Background(), "floor")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	entry, err := s.Recent(context.Background())
	require.NoError(t, err)
	require.Equal(t, "floor", entry.Record.ScreenshotName)
	require.InDelta(t, 1.0, entry.Record.Area, 1e-6)
	require.Len(t, entry.Record.ScreenCoordinates, 4)
}
