package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

const formatVersion = "1.0"

// vector3Data is a world coordinate as stored on disk
type vector3Data struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// vector2Data is a screen coordinate as stored on disk
type vector2Data struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type sessionData struct {
	Version   string    `json:"version"`
	ID        uint64    `json:"id"`
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
}

type recordData struct {
	Version           string        `json:"version"`
	ID                string        `json:"id"`
	SessionID         uint64        `json:"sessionId"`
	Seq               uint64        `json:"seq"`
	SavedAt           time.Time     `json:"savedAt"`
	ScreenshotName    string        `json:"screenshotName"`
	WorldCoordinates  []vector3Data `json:"worldCoordinates"`
	ScreenCoordinates []vector2Data `json:"screenCoordinates"`
	Closed            bool          `json:"closed"`
	Perimeter         float64       `json:"perimeter,omitempty"`
	Area              float64       `json:"area,omitempty"`
	CapturedAt        time.Time     `json:"capturedAt"`
}

func encodeSession(s Session) ([]byte, error) {
	data, err := json.Marshal(sessionData{
		Version:   formatVersion,
		ID:        s.ID,
		RunID:     s.RunID,
		CreatedAt: s.CreatedAt,
	})
	return data, errors.Wrap(err, "failed to marshal session")
}

func decodeSession(val []byte) (Session, error) {
	var data sessionData
	if err := json.Unmarshal(val, &data); err != nil {
		return Session{}, errors.Wrap(err, "failed to parse session")
	}
	return Session{ID: data.ID, RunID: data.RunID, CreatedAt: data.CreatedAt}, nil
}

func encodeEntry(e Entry) ([]byte, error) {
	rec := e.Record
	data := recordData{
		Version:           formatVersion,
		ID:                e.ID,
		SessionID:         e.SessionID,
		Seq:               e.Seq,
		SavedAt:           e.SavedAt,
		ScreenshotName:    rec.ScreenshotName,
		WorldCoordinates:  make([]vector3Data, 0, len(rec.WorldCoordinates)),
		ScreenCoordinates: make([]vector2Data, 0, len(rec.ScreenCoordinates)),
		Closed:            rec.Closed,
		Perimeter:         rec.Perimeter,
		Area:              rec.Area,
		CapturedAt:        rec.CapturedAt,
	}
	for _, p := range rec.WorldCoordinates {
		data.WorldCoordinates = append(data.WorldCoordinates, vector3Data{X: p.X, Y: p.Y, Z: p.Z})
	}
	for _, p := range rec.ScreenCoordinates {
		data.ScreenCoordinates = append(data.ScreenCoordinates, vector2Data{X: p.X, Y: p.Y})
	}

	val, err := json.Marshal(data)
	return val, errors.Wrap(err, "failed to marshal record")
}

func decodeEntry(val []byte) (Entry, error) {
	var data recordData
	if err := json.Unmarshal(val, &data); err != nil {
		return Entry{}, errors.Wrap(err, "failed to parse record")
	}

	rec := measurement.Record{
		ScreenshotName:    data.ScreenshotName,
		WorldCoordinates:  make([]geometry.Vector3, 0, len(data.WorldCoordinates)),
		ScreenCoordinates: make([]geometry.Vector2, 0, len(data.ScreenCoordinates)),
		Closed:            data.Closed,
		Perimeter:         data.Perimeter,
		Area:              data.Area,
		CapturedAt:        data.CapturedAt,
	}
	for _, p := range data.WorldCoordinates {
		rec.WorldCoordinates = append(rec.WorldCoordinates, geometry.NewVector3(p.X, p.Y, p.Z))
	}
	for _, p := range data.ScreenCoordinates {
		rec.ScreenCoordinates = append(rec.ScreenCoordinates, geometry.NewVector2(p.X, p.Y))
	}

	return Entry{
		ID:        data.ID,
		SessionID: data.SessionID,
		Seq:       data.Seq,
		SavedAt:   data.SavedAt,
		Record:    rec,
	}, nil
}
