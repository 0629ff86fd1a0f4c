package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/prp-express/internal/async"
	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/ingest"
	"github.com/joseph-ayodele/prp-express/internal/llm"
	"github.com/joseph-ayodele/prp-express/internal/session"
)

var ErrSessionNotFound = common.NewAppError("SESSION_NOT_FOUND", "session not found or expired", common.ErrNotFound)

// Session is one live session and its file ingestor.
type Session struct {
	Store    *session.Store
	Ingestor *ingest.FSIngestor
}

// Registry keeps sessions in memory and forgets the ones left idle for
// longer than the TTL. All sessions share one extraction queue.
type Registry struct {
	cache   *cache.Cache
	queue   async.Queue
	refiner llm.Refiner
	logger  *slog.Logger
}

func NewRegistry(queue async.Queue, refiner llm.Refiner, ttl, cleanup time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	c := cache.New(ttl, cleanup)
	c.OnEvicted(func(id string, _ interface{}) {
		logger.Info("session.evicted", "session_id", id)
	})
	return &Registry{cache: c, queue: queue, refiner: refiner, logger: logger}
}

// Create starts an empty session.
func (r *Registry) Create() *Session {
	st := session.NewStore(r.queue, r.refiner, r.logger)
	s := &Session{
		Store:    st,
		Ingestor: ingest.NewFSIngestor(st, r.logger.With("session_id", st.ID().String())),
	}
	r.cache.SetDefault(st.ID().String(), s)
	r.logger.Info("session.created", "session_id", st.ID().String(), "live", r.cache.ItemCount())
	return s
}

// Get returns a live session and extends its lifetime.
func (r *Registry) Get(id string) (*Session, error) {
	key, err := normalizeID(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	r.cache.SetDefault(key, s)
	return s, nil
}

// Delete drops a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	key, err := normalizeID(id)
	if err != nil {
		return false
	}
	if _, ok := r.cache.Get(key); !ok {
		return false
	}
	r.cache.Delete(key)
	return true
}

// Len is the number of live sessions, including expired ones not yet cleaned.
func (r *Registry) Len() int { return r.cache.ItemCount() }

func normalizeID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
