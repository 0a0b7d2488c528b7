package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hidream/internal/registry"
	"hidream/internal/resolve"
	"hidream/pkg/types"
)

type Manager struct {
	// mu guards the observable fields below. The resident pipeline itself is
	// only replaced while holding the slot (see admission.go).
	mu          sync.RWMutex
	state       State
	cur         *resident
	err         string
	errKind     string
	loads       uint64
	unloads     uint64
	generations uint64
	closed      bool

	registry  *registry.Registry
	runtime   Runtime
	seeds     SeedSource
	publisher EventPublisher
	log       zerolog.Logger

	// Admission: slot holds the single in-flight ensure+generate pair,
	// queue counts waiters plus the holder.
	slot          chan struct{}
	queue         chan struct{}
	maxQueueDepth int
	maxWait       time.Duration

	startTime time.Time
}

// New constructs a Manager with package defaults.
func New(reg *registry.Registry, rt Runtime) *Manager {
	return NewWithConfig(ManagerConfig{Registry: reg, Runtime: rt})
}

// SetEventPublisher replaces the lifecycle event sink.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}

// Ready reports whether a pipeline is resident.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur != nil
}

// ListModels returns the predefined models.
func (m *Manager) ListModels() []types.ModelInfo {
	return m.registry.Models()
}

// Resolve validates raw front-end inputs against this manager's catalog.
func (m *Manager) Resolve(raw types.RawRequest) (types.GenerationRequest, error) {
	return resolve.Resolve(raw, m.registry)
}

// ResolveModel validates a model selection alone, for switch requests.
func (m *Manager) ResolveModel(kind, customPath string) (types.ModelDescriptor, error) {
	return resolve.ResolveModel(kind, customPath, m.registry)
}

func (m *Manager) publish(name string, d types.ModelDescriptor, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	p.Publish(Event{Name: name, Model: d.String(), At: time.Now(), Fields: fields})
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// recordErr stores the last error and its category for status reporting.
func (m *Manager) recordErr(err error) {
	m.mu.Lock()
	if err == nil {
		m.err, m.errKind = "", ""
	} else {
		m.err, m.errKind = err.Error(), Kind(err)
	}
	m.mu.Unlock()
}
