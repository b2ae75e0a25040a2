package workpool_test

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/workpool"
)

var _ = Describe("Pool", func() {
	It("returns the task's result", func() {
		pool := workpool.NewPool(2)

		Expect(pool.Do(func() error { return nil })).To(Succeed())

		taskErr := errors.New("task blew up")
		Expect(pool.Do(func() error { return taskErr })).To(MatchError(taskErr))
	})

	It("never runs more tasks than it has workers", func() {
		const workerCount = 4
		const taskCount = 20

		pool := workpool.NewPool(workerCount)

		var running int64
		var peak int64
		var peakLock sync.Mutex

		waitgroup := sync.WaitGroup{}
		waitgroup.Add(taskCount)

		for i := 0; i < taskCount; i++ {
			go func() {
				defer waitgroup.Done()

				_ = pool.Do(func() error {
					current := atomic.AddInt64(&running, 1)
					defer atomic.AddInt64(&running, -1)

					peakLock.Lock()
					if current > peak {
						peak = current
					}
					peakLock.Unlock()

					return nil
				})
			}()
		}

		waitgroup.Wait()

		Expect(peak).To(BeNumerically("<=", workerCount))
	})

	It("panics on a nonpositive worker count", func() {
		Expect(func() { workpool.NewPool(0) }).To(Panic())
	})
})
