package measurement

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidState is matched by every rejected engine operation
var ErrInvalidState = errors.New("invalid measure state")

// InvalidStateError reports an operation that the engine refused without
// mutating itself.
type InvalidStateError struct {
	Op     string
	Count  int // vertices at the time of the call
	Need   int // minimum vertices the operation requires
	Closed bool
}

func (e *InvalidStateError) Error() string {
	if e.Closed {
		return fmt.Sprintf("%s: measure is closed with %d vertices, reset first", e.Op, e.Count)
	}
	return fmt.Sprintf("%s: need at least %d vertices, have %d", e.Op, e.Need, e.Count)
}

// Is makes errors.Is(err, ErrInvalidState) hold for any InvalidStateError
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
