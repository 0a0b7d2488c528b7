package manager

import (
	"time"

	"hidream/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state, Err: m.err, ErrKind: m.errKind}
	if m.cur != nil {
		d := m.cur.desc
		c := m.cur.config
		s.Model = &d
		s.Config = &c
	}
	return s
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		State:            string(m.state),
		Inflight:         len(m.slot),
		MaxQueueDepth:    m.maxQueueDepth,
		LastError:        m.err,
		LastErrorKind:    m.errKind,
		LoadsTotal:       m.loads,
		UnloadsTotal:     m.unloads,
		GenerationsTotal: m.generations,
		UptimeSeconds:    int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix:   now.Unix(),
	}
	if q := len(m.queue) - len(m.slot); q > 0 {
		resp.QueueLen = q
	}
	if m.cur != nil {
		d := m.cur.desc
		resp.Model = &d
		resp.LoadedAt = m.cur.loadedAt.Unix()
		resp.LastUsed = m.cur.lastUsed.Unix()
	}
	return resp
}
