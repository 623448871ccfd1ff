package app

import (
	"context"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Tracker is the camera tracking stack: hit-testing screen points into the
// world and projecting world points back onto the screen.
type Tracker interface {
	WorldPosition(screen geometry.Vector2) (geometry.Vector3, bool)
	measurement.Projector
}

// Gateway durably stores finished measurements
type Gateway interface {
	Save(ctx context.Context, rec measurement.Record) (store.Entry, error)
	Recent(ctx context.Context) (store.Entry, error)
}

// InteractionState holds touch state between events
type InteractionState struct {
	tentative bool // the last vertex follows the finger and is not committed yet
}
