package verification

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// scheduler decides when a verification attempt may run. Attempts for the
// same domain are collapsed into one in-flight call; attempts across domains
// run in parallel up to a fixed bound.
type scheduler struct {
	group singleflight.Group

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	minInterval time.Duration

	sem chan struct{}
}

func newScheduler(minInterval time.Duration, concurrency int) *scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &scheduler{
		limiters:    make(map[string]*rate.Limiter),
		minInterval: minInterval,
		sem:         make(chan struct{}, concurrency),
	}
}

// allow applies the per-domain minimum re-check interval. Manual requests
// bypass the interval once per explicit user action but still consume a
// token when one is available, so the interval restarts after them too.
func (s *scheduler) allow(domainID string, manual bool) bool {
	s.mu.Lock()
	limiter, ok := s.limiters[domainID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(s.minInterval), 1)
		s.limiters[domainID] = limiter
	}
	s.mu.Unlock()

	allowed := limiter.Allow()
	return allowed || manual
}

// do runs fn once per domain regardless of how many callers ask concurrently;
// every caller observes the shared result.
func (s *scheduler) do(domainID string, fn func() (interface{}, error)) (interface{}, error) {
	v, err, _ := s.group.Do(domainID, fn)
	return v, err
}

func (s *scheduler) acquire() {
	s.sem <- struct{}{}
}

func (s *scheduler) release() {
	<-s.sem
}

// forget drops the rate limiter of a deleted domain.
func (s *scheduler) forget(domainID string) {
	s.mu.Lock()
	delete(s.limiters, domainID)
	s.mu.Unlock()
}
