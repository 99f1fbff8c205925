package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/rwKV/lib/db"
	"github.com/ValentinKolb/rwKV/lib/db/util"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

// Options configures a Container.
type Options struct {
	// DisableIsolation makes every caller share one bundle
	DisableIsolation bool
	// MaxSessions is the number of bundles kept before the least recently
	// accessed one is evicted
	MaxSessions int
	// Limits are applied to every bundle
	Limits Limits
	// Clock returns the access timestamp used as heap priority. It must be
	// strictly increasing, defaults to a monotonic nanosecond clock.
	Clock func() int64
}

// Container maps session tokens to bundles and evicts the least recently
// accessed session once MaxSessions is reached. It is safe for concurrent use.
type Container struct {
	mu       sync.Mutex
	opts     Options
	sessions *util.MapHeap[*Bundle]
	shared   *Bundle

	created uint64
	evicted uint64
}

// NewContainer creates an empty container.
func NewContainer(opts Options) (*Container, error) {
	if opts.MaxSessions <= 0 {
		return nil, db.NewError(db.RetCInvalidConfiguration, fmt.Sprintf("invalid value for max sessions: %d", opts.MaxSessions))
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = monotonicClock()
	}

	return &Container{
		opts:     opts,
		sessions: util.NewMapHeap[*Bundle](),
	}, nil
}

// GetOrCreate returns the bundle of the session identified by token.
//
//   - isolation disabled: the one shared bundle, whatever the token
//   - empty token: a fresh bundle that is never stored
//   - unknown token: a new stored bundle, evicting the least recently
//     accessed session first if the container is full
//   - known token: the stored bundle, its access time is refreshed
func (c *Container) GetOrCreate(token string) (*Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.DisableIsolation {
		if c.shared == nil {
			b, err := NewBundle(c.opts.Limits)
			if err != nil {
				return nil, err
			}
			c.shared = b
			c.created++
		}
		return c.shared, nil
	}

	if token == "" {
		return NewBundle(c.opts.Limits)
	}

	if it, ok := c.sessions.GetByKey(token); ok {
		if err := c.sessions.UpdatePriority(token, c.opts.Clock()); err != nil {
			return nil, err
		}
		return it.Value, nil
	}

	if c.sessions.Len() >= c.opts.MaxSessions {
		if oldest, ok := c.sessions.PopItem(); ok {
			c.evicted++
			Logger.Debugf("evicted session %s", oldest.Key)
		}
	}

	b, err := NewBundle(c.opts.Limits)
	if err != nil {
		return nil, err
	}
	c.sessions.AddItem(token, c.opts.Clock(), b)
	c.created++
	Logger.Debugf("created session %s (%d/%d)", token, c.sessions.Len(), c.opts.MaxSessions)
	return b, nil
}

// Contains reports whether a bundle is stored for token. It does not refresh
// the session.
func (c *Container) Contains(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Contains(token)
}

// Len returns the number of stored sessions.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.DisableIsolation {
		if c.shared == nil {
			return 0
		}
		return 1
	}
	return c.sessions.Len()
}

// --------------------------------------------------------------------------
// Statistics
// --------------------------------------------------------------------------

// Counters returns the number of sessions created and evicted so far without
// touching any bundle.
func (c *Container) Counters() (created, evicted uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created, c.evicted
}

// MaxSessions returns the configured session limit.
func (c *Container) MaxSessions() int {
	return c.opts.MaxSessions
}

// Stats describes the state of a container.
type Stats struct {
	Sessions     int                    `json:"sessions"`
	MaxSessions  int                    `json:"max_sessions"`
	Created      uint64                 `json:"created"`
	Evicted      uint64                 `json:"evicted"`
	Records      int                    `json:"records"`
	Distribution util.DistributionStats `json:"distribution"`
}

// Stats collects the container statistics. Bundles are locked one at a time
// after the container lock was released.
func (c *Container) Stats() Stats {
	c.mu.Lock()
	s := Stats{
		MaxSessions: c.opts.MaxSessions,
		Created:     c.created,
		Evicted:     c.evicted,
	}
	bundles := c.sessions.Values()
	if c.shared != nil {
		bundles = append(bundles, c.shared)
	}
	c.mu.Unlock()

	s.Sessions = len(bundles)
	sizes := make([]float64, 0, len(bundles))
	for _, b := range bundles {
		b.Lock()
		n := b.Info().Records()
		b.Unlock()
		s.Records += n
		sizes = append(sizes, float64(n))
	}
	s.Distribution = util.NewDistributionStats(sizes)
	return s
}

// monotonicClock returns a nanosecond clock that never returns the same value
// twice, even if the wall clock stalls or goes backwards.
func monotonicClock() func() int64 {
	var (
		mu   sync.Mutex
		last int64
	)
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now().UnixNano()
		if now <= last {
			now = last + 1
		}
		last = now
		return now
	}
}
