package app

import (
	"go.uber.org/zap"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// addAt hit-tests screen and appends the world point. A miss changes nothing.
func (a *App) addAt(screen geometry.Vector2) bool {
	pos, ok := a.tracker.WorldPosition(screen)
	if !ok {
		a.log.Debug("hit-test missed", zap.Float64("x", screen.X), zap.Float64("y", screen.Y))
		return false
	}
	if err := a.measure.Add(pos); err != nil {
		a.log.Warn("vertex rejected", zap.Error(err))
		return false
	}
	return true
}

// TouchBegan starts a touch. A touch on a closed polygon discards it.
// Otherwise, once a first vertex exists, a tentative vertex follows the finger.
func (a *App) TouchBegan(screen geometry.Vector2) {
	if a.measure.IsClosed() {
		a.Reset()
		return
	}
	if a.measure.IsEmpty() {
		return
	}
	a.interaction.tentative = a.addAt(screen)
}

// TouchMoved moves the tentative vertex to the new touch position
func (a *App) TouchMoved(screen geometry.Vector2) {
	if a.measure.IsEmpty() || a.measure.IsClosed() {
		return
	}
	if !a.interaction.tentative {
		a.interaction.tentative = a.addAt(screen)
		return
	}

	pos, ok := a.tracker.WorldPosition(screen)
	if !ok {
		// keep the tentative vertex where it was last seen
		return
	}
	a.measure.Undo()
	if err := a.measure.Add(pos); err != nil {
		a.interaction.tentative = false
		a.log.Warn("vertex rejected", zap.Error(err))
	}
}

// TouchEnded commits the touch. Ending near the first vertex of a closable
// polygon closes it and returns its geometry instead of adding a vertex.
func (a *App) TouchEnded(screen geometry.Vector2) (measurement.Result, bool) {
	if a.interaction.tentative {
		a.measure.Undo()
		a.interaction.tentative = false
	}

	if a.detector.Hit(a.measure, screen, a.tracker) {
		res, err := a.measure.Close()
		if err != nil {
			a.log.Warn("cannot close measure", zap.Error(err))
			return measurement.Result{}, false
		}
		a.logResult(res)
		return res, true
	}

	a.addAt(screen)
	return measurement.Result{}, false
}

// TouchCancelled drops the tentative vertex, if any
func (a *App) TouchCancelled() {
	if a.interaction.tentative {
		a.measure.Undo()
		a.interaction.tentative = false
	}
}
