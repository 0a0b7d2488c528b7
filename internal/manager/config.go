package manager

import (
	"time"

	"github.com/rs/zerolog"

	"hidream/internal/registry"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const defaultMaxQueueDepth = 32

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Registry *registry.Registry
	Runtime  Runtime
	// MaxQueueDepth bounds requests waiting for the slot, excluding the one in flight.
	MaxQueueDepth int
	// MaxWait bounds how long a request waits for the slot. Zero waits forever.
	MaxWait   time.Duration
	Seeds     SeedSource
	Publisher EventPublisher
	Logger    *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:     StateNoModel,
		registry:  cfg.Registry,
		runtime:   cfg.Runtime,
		seeds:     cfg.Seeds,
		publisher: cfg.Publisher,
		maxWait:   cfg.MaxWait,
	}
	if m.registry == nil {
		m.registry = registry.Default()
	}
	if m.seeds == nil {
		m.seeds = CryptoSeeds{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if m.maxWait < 0 {
		m.maxWait = 0
	}
	m.slot = make(chan struct{}, 1)
	m.queue = make(chan struct{}, m.maxQueueDepth+1)
	m.startTime = time.Now()
	return m
}
