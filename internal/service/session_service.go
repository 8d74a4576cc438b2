package service

import (
	"context"
	"sync"
	"time"

	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/metrics"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/rs/zerolog"
)

// SessionService keeps one store container per browser session. Containers
// are built on first use from the persisted snapshots and dropped again
// after a period of inactivity; the snapshots outlive them.
type SessionService struct {
	snapshots store.SnapshotStore
	auth      store.AuthProvider
	observer  store.Observer
	logger    zerolog.Logger
	idleTTL   time.Duration
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type sessionEntry struct {
	ready     chan struct{}
	container *store.Container
	err       error
	lastSeen  time.Time
}

// SessionConfig holds configuration for the session service
type SessionConfig struct {
	IdleTTL         time.Duration // How long an untouched container stays in memory
	CleanupInterval time.Duration // How often idle containers are swept
}

// DefaultSessionConfig returns sensible defaults
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTTL:         30 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// NewSessionService creates a new SessionService. auth and observer may be nil.
func NewSessionService(
	snapshots store.SnapshotStore,
	auth store.AuthProvider,
	observer store.Observer,
	logger zerolog.Logger,
	config SessionConfig,
) *SessionService {
	defaults := DefaultSessionConfig()
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaults.IdleTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	return &SessionService{
		snapshots: snapshots,
		auth:      auth,
		observer:  observer,
		logger:    logger.With().Str("component", "session_service").Logger(),
		idleTTL:   config.IdleTTL,
		interval:  config.CleanupInterval,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Container returns the container for sessionID, loading it on first use.
// Concurrent first requests for the same session share one load.
func (s *SessionService) Container(ctx context.Context, sessionID string) (*store.Container, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if ok {
		entry.lastSeen = s.now()
		s.mu.Unlock()
		<-entry.ready
		return entry.container, entry.err
	}
	entry = &sessionEntry{ready: make(chan struct{}), lastSeen: s.now()}
	s.sessions[sessionID] = entry
	s.mu.Unlock()

	var opts []store.Option
	if s.auth != nil {
		opts = append(opts, store.WithAuthProvider(s.auth))
	}
	if s.observer != nil {
		opts = append(opts, store.WithObserver(s.observer))
	}
	entry.container, entry.err = store.New(ctx, sessionID, s.snapshots, opts...)

	s.mu.Lock()
	if s.sessions[sessionID] == entry {
		if entry.err != nil {
			delete(s.sessions, sessionID)
		} else {
			metrics.ActiveSessions.Inc()
		}
	}
	close(entry.ready)
	s.mu.Unlock()

	if entry.err != nil {
		return nil, entry.err
	}
	s.logger.Debug().Str("session_id", sessionID).Msg("Session loaded")
	return entry.container, nil
}

// Count returns the number of containers held in memory
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict drops the in-memory container for sessionID
func (s *SessionService) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(sessionID)
}

func (s *SessionService) evictLocked(sessionID string) {
	entry, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(s.sessions, sessionID)
	select {
	case <-entry.ready:
		if entry.err == nil {
			metrics.ActiveSessions.Dec()
		}
	default:
	}
}

// evictIdle drops containers untouched for longer than the idle TTL
func (s *SessionService) evictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for sessionID, entry := range s.sessions {
		select {
		case <-entry.ready:
		default:
			continue // still loading
		}
		if now.Sub(entry.lastSeen) > s.idleTTL {
			s.evictLocked(sessionID)
			evicted++
		}
	}
	return evicted
}

// Start begins the idle sweep
func (s *SessionService) Start() {
	s.logger.Info().Dur("idle_ttl", s.idleTTL).Msg("Starting session cleanup")
	go s.run()
}

func (s *SessionService) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				s.logger.Debug().Int("evicted", n).Msg("Evicted idle sessions")
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop ends the idle sweep and waits for it to exit. Safe to call once
// Start has run; later calls are no-ops.
func (s *SessionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.logger.Info().Msg("Session cleanup stopped")
	})
}
