package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/philipparndt/armeasure/internal/app"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/geometry"
	"github.com/philipparndt/armeasure/pkg/viewer"
)

var replayDryRun bool

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Replay a recorded touch session",
	Long: `Run a touch script (YAML or JSON) through the measuring engine.
The script places a simulated camera above a horizontal plane and lists touch
events in screen pixels, or in world meters which are projected first:

  camera:
    position: [0, 1.5, 2]
    target: [0, 0, 0]
    fov: 60
    width: 1170
    height: 2532
  plane: 0
  events:
    - {type: tap, world: [0, 0, 0]}
    - {type: began, at: [600, 1200]}
    - {type: moved, at: [640, 1210]}
    - {type: ended, at: [650, 1220]}
    - {type: undo}
    - {type: capture, name: kitchen}

Captures are saved to the database unless --dry-run is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "Do not save captures")
}

type cameraSpec struct {
	Position []float64 `yaml:"position"`
	Target   []float64 `yaml:"target"`
	FOV      float64   `yaml:"fov"`
	Width    float64   `yaml:"width"`
	Height   float64   `yaml:"height"`
}

type touchEvent struct {
	Type  string    `yaml:"type"`
	At    []float64 `yaml:"at"`    // screen pixels
	World []float64 `yaml:"world"` // meters, projected through the camera
	Name  string    `yaml:"name"`
}

type script struct {
	Camera cameraSpec   `yaml:"camera"`
	Plane  float64      `yaml:"plane"`
	Events []touchEvent `yaml:"events"`
}

func vec3(name string, c []float64) (geometry.Vector3, error) {
	if len(c) != 3 {
		return geometry.Vector3{}, errors.Errorf("%s needs 3 components, got %d", name, len(c))
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

func parseScript(r io.Reader) (*script, error) {
	s := &script{
		Camera: cameraSpec{
			Position: []float64{0, 1.5, 2},
			Target:   []float64{0, 0, 0},
			FOV:      60,
			Width:    1170,
			Height:   2532,
		},
	}
	if err := yaml.NewDecoder(r).Decode(s); err != nil {
		return nil, errors.Wrap(err, "failed to parse replay script")
	}
	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		return nil, errors.Errorf("camera fov must be within (0, 180), got %v", s.Camera.FOV)
	}
	if s.Camera.Width <= 0 || s.Camera.Height <= 0 {
		return nil, errors.New("camera width and height must be positive")
	}
	for i, ev := range s.Events {
		switch strings.ToLower(ev.Type) {
		case "began", "moved", "ended", "tap":
			if len(ev.At) != 2 && len(ev.World) != 3 {
				return nil, errors.Errorf("event %d (%s) needs at: [x, y] or world: [x, y, z]", i, ev.Type)
			}
		case "cancelled", "undo", "reset", "close", "capture":
		default:
			return nil, errors.Errorf("event %d has unknown type %q", i, ev.Type)
		}
	}
	return s, nil
}

func (s *script) tracker() (*viewer.PlaneTracker, error) {
	pos, err := vec3("camera position", s.Camera.Position)
	if err != nil {
		return nil, err
	}
	target, err := vec3("camera target", s.Camera.Target)
	if err != nil {
		return nil, err
	}
	camera := viewer.NewCamera(pos, target, s.Camera.FOV, s.Camera.Width, s.Camera.Height)
	return viewer.NewPlaneTracker(camera, s.Plane), nil
}

// screenPoint resolves the event position in pixels
func (ev touchEvent) screenPoint(tracker app.Tracker) geometry.Vector2 {
	if len(ev.At) == 2 {
		return geometry.NewVector2(ev.At[0], ev.At[1])
	}
	return tracker.Project(geometry.NewVector3(ev.World[0], ev.World[1], ev.World[2]))
}

// play feeds the events to a and reports closes and captures on w
func (s *script) play(ctx context.Context, a *app.App, tracker app.Tracker, w io.Writer) error {
	report := func(res measurement.Result) {
		fmt.Fprintf(w, "closed: %d vertices, perimeter %.3f m, area %.3f m²\n", res.Vertices, res.Perimeter, res.Area)
	}

	for i, ev := range s.Events {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch strings.ToLower(ev.Type) {
		case "began":
			a.TouchBegan(ev.screenPoint(tracker))
		case "moved":
			a.TouchMoved(ev.screenPoint(tracker))
		case "ended":
			if res, closed := a.TouchEnded(ev.screenPoint(tracker)); closed {
				report(res)
			}
		case "tap":
			p := ev.screenPoint(tracker)
			a.TouchBegan(p)
			if res, closed := a.TouchEnded(p); closed {
				report(res)
			}
		case "cancelled":
			a.TouchCancelled()
		case "undo":
			a.Undo()
		case "reset":
			a.Reset()
		case "close":
			res, err := a.CloseMeasure()
			if err != nil {
				return errors.Wrapf(err, "event %d", i)
			}
			report(res)
		case "capture":
			rec, err := a.Capture(ctx, ev.Name)
			if err != nil {
				return errors.Wrapf(err, "event %d", i)
			}
			fmt.Fprintf(w, "captured %q: %d vertices\n", rec.ScreenshotName, len(rec.WorldCoordinates))
		}
	}
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "failed to open replay script")
	}
	s, err := parseScript(f)
	f.Close()
	if err != nil {
		return err
	}
	tracker, err := s.tracker()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := app.Options{
		Tracker:        tracker,
		Mode:           env.cfg.Mode,
		Projection:     env.cfg.Projection,
		CloseThreshold: env.cfg.CloseThreshold,
		Logger:         env.log,
	}
	if !replayDryRun {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Gateway = st
		opts.OnSaved = func(e store.Entry) {
			env.log.Info("measurement saved",
				zap.String("id", e.ID), zap.Uint64("session", e.SessionID), zap.Uint64("seq", e.Seq))
		}
	}

	a := app.New(cmd.Context(), opts)
	playErr := s.play(cmd.Context(), a, tracker, out)
	if err := a.Close(); err != nil && playErr == nil {
		playErr = err
	}
	if playErr != nil {
		return playErr
	}

	if res, ok := a.Result(); ok {
		fmt.Fprintf(out, "final: perimeter %.3f m, area %.3f m²\n", res.Perimeter, res.Area)
	} else {
		fmt.Fprintf(out, "final: %d vertices, not closed\n", len(a.Vertices()))
	}
	return nil
}
