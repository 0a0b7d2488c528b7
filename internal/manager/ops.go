package manager

import (
	"context"

	"github.com/google/uuid"

	"hidream/pkg/types"
)

// Switch starts making d resident in the background and returns an
// operation ID. Callers poll Status to observe the transition. The switch
// queues for the slot like any other request and outlives ctx.
func (m *Manager) Switch(_ context.Context, d types.ModelDescriptor) (string, error) {
	if m.isClosed() {
		return "", ErrClosed
	}
	if !d.IsCustom() && !m.registry.IsKnown(d.Kind) {
		return "", modelNotFoundError{kind: d.Kind}
	}
	op := uuid.NewString()
	go func(opID string) {
		// Detached context: the caller's request ends before the load does.
		err := m.Ensure(context.Background(), d)
		fields := map[string]any{"op_id": opID}
		if err != nil {
			fields["error"] = err.Error()
			m.log.Warn().Str("event", "switch_failed").Str("op_id", opID).Str("model", d.String()).Err(err).Msg("background switch failed")
		}
		m.publish("switch_done", d, fields)
	}(op)
	return op, nil
}
