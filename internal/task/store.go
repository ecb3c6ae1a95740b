package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jalansafe/routeintel/internal/domain"
)

// ErrInvalidTransition is returned when an update skips or reverses a lifecycle step
var ErrInvalidTransition = errors.New("invalid task state transition")

// Store holds task records. Implementations must be safe for concurrent use:
// one goroutine owns each task's mutations while any number of pollers read it.
type Store interface {
	// Create stores a new record. It fails if the id is already taken.
	Create(ctx context.Context, task domain.AnalysisTask) error
	// Get returns a copy of the record or domain.ErrNotFound
	Get(ctx context.Context, id string) (domain.AnalysisTask, error)
	// Update applies mutate to the current record. Terminal records and
	// illegal state changes are rejected and the stored record is left as is.
	Update(ctx context.Context, id string, mutate func(*domain.AnalysisTask)) error
}

// applyUpdate runs mutate on a copy of cur and checks the result
func applyUpdate(cur domain.AnalysisTask, mutate func(*domain.AnalysisTask)) (domain.AnalysisTask, error) {
	if cur.State.Terminal() {
		return domain.AnalysisTask{}, fmt.Errorf("task %s: %w", cur.ID, domain.ErrTaskTerminal)
	}

	next := clone(cur)
	mutate(&next)

	if next.ID != cur.ID {
		return domain.AnalysisTask{}, fmt.Errorf("task %s: id is immutable", cur.ID)
	}
	if next.State != cur.State && !cur.State.CanTransition(next.State) {
		return domain.AnalysisTask{}, fmt.Errorf("task %s: %w: %s -> %s", cur.ID, ErrInvalidTransition, cur.State, next.State)
	}
	return next, nil
}

// clone deep-copies the slices and pointers of a record
func clone(t domain.AnalysisTask) domain.AnalysisTask {
	out := t
	out.Request = cloneRaw(t.Request)
	out.Result = cloneRaw(t.Result)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	if t.Error != nil {
		e := *t.Error
		out.Error = &e
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func notFound(id string) error {
	return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
}

// utcNow drops the monotonic reading so stored and reloaded timestamps compare equal
func utcNow() time.Time {
	return time.Now().UTC().Round(0)
}
