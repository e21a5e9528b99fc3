package lookup

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStoreSize bounds the number of live panels.
const DefaultStoreSize = 1024

// Store keeps one panel per session. The least recently used panel is
// evicted once the store is full; its session simply starts over in Idle.
type Store struct {
	service   Service
	logger    *slog.Logger
	validator *validator.Validate

	mu     sync.Mutex
	panels *lru.Cache[string, *Panel]
}

// NewStore constructs a store holding at most size panels.
func NewStore(service Service, logger *slog.Logger, size int) (*Store, error) {
	if size <= 0 {
		size = DefaultStoreSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	panels, err := lru.New[string, *Panel](size)
	if err != nil {
		return nil, fmt.Errorf("lookup: panel store: %w", err)
	}
	return &Store{
		service:   service,
		logger:    logger,
		validator: validator.New(),
		panels:    panels,
	}, nil
}

// Panel returns the panel bound to sessionID, creating it on first use.
func (s *Store) Panel(sessionID string) *Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if panel, ok := s.panels.Get(sessionID); ok {
		return panel
	}
	panel := NewPanel(s.service, s.logger.With(slog.String("session", sessionID)), s.validator)
	s.panels.Add(sessionID, panel)
	return panel
}

// Len reports the number of live panels.
func (s *Store) Len() int {
	return s.panels.Len()
}
