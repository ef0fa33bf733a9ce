package verification

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_AllowEnforcesMinInterval(t *testing.T) {
	sched := newScheduler(time.Hour, 1)

	assert.True(t, sched.allow("dom_1", false))
	assert.False(t, sched.allow("dom_1", false))

	// other domains have their own interval
	assert.True(t, sched.allow("dom_2", false))
}

func TestScheduler_ManualBypassesInterval(t *testing.T) {
	sched := newScheduler(time.Hour, 1)

	assert.True(t, sched.allow("dom_1", false))
	assert.False(t, sched.allow("dom_1", false))
	assert.True(t, sched.allow("dom_1", true))
}

func TestScheduler_ForgetResetsInterval(t *testing.T) {
	sched := newScheduler(time.Hour, 1)

	assert.True(t, sched.allow("dom_1", false))
	assert.False(t, sched.allow("dom_1", false))

	sched.forget("dom_1")
	assert.True(t, sched.allow("dom_1", false))
}

func TestScheduler_DoCollapsesConcurrentCalls(t *testing.T) {
	sched := newScheduler(time.Hour, 4)

	var calls int64
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func() (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		close(started)
		<-release
		return "done", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = sched.do("dom_1", fn)
	}()

	// second caller joins once the first is in flight
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = sched.do("dom_1", func() (interface{}, error) {
			atomic.AddInt64(&calls, 1)
			return "done", nil
		})
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	assert.Equal(t, "done", results[0])
	assert.Equal(t, "done", results[1])
}

func TestScheduler_SemaphoreBoundsConcurrency(t *testing.T) {
	sched := newScheduler(time.Hour, 2)

	var active, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		sched.acquire()
		go func() {
			defer wg.Done()
			defer sched.release()

			current := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if current <= old || atomic.CompareAndSwapInt64(&peak, old, current) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&active, -1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}
