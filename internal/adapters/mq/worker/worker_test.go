package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	worker "github.com/helixhq/helix/internal/adapters/mq/worker"
	model "github.com/helixhq/helix/internal/domain/model"
	logging "github.com/helixhq/helix/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	contributions chan worker.Contribution
	closeError    error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		contributions: make(chan worker.Contribution, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Contribution {
	return mq.contributions
}

func (mq *mockQueue) Close() error {
	close(mq.contributions)
	return mq.closeError
}

func (mq *mockQueue) add(c worker.Contribution) {
	mq.contributions <- c
}

type mockProcessor struct {
	processed map[string]worker.Contribution
	errors    map[string]error
	mu        sync.RWMutex
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{
		processed: make(map[string]worker.Contribution),
		errors:    make(map[string]error),
	}
}

func (mp *mockProcessor) Process(ctx context.Context, c worker.Contribution) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if err, exists := mp.errors[c.ID]; exists {
		return err
	}
	mp.processed[c.ID] = c
	return nil
}

func (mp *mockProcessor) setError(contributionID string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.errors[contributionID] = err
}

func (mp *mockProcessor) wasProcessed(contributionID string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.processed[contributionID]
	return ok
}

func testContribution(id, employeeID string) model.Contribution {
	return model.Contribution{
		ID:                id,
		EmployeeID:        employeeID,
		Skill:             "Go",
		ContributionLevel: model.LevelModerate,
		Role:              model.RoleContributor,
		ConfidenceImpact:  5,
		Status:            model.StatusValidated,
		ValidatedAt:       "2024-06-01T00:00:00Z",
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		processor := newMockProcessor()

		convey.Convey("When creating a worker with default options", func() {
			w := worker.NewInMemoryWorker(queue, processor)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(
				queue, processor,
				worker.WithName("test-worker"),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(queue, processor)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go w.Run(ctx)
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And when processing contributions", func() {
				queue.add(testContribution("c-1", "emp-1"))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the processor should receive them", func() {
					convey.So(processor.wasProcessed("c-1"), convey.ShouldBeTrue)
				})
			})

			convey.Convey("And when processing fails", func() {
				processor.setError("c-2", errors.New("plan invalid"))
				queue.add(testContribution("c-2", "emp-2"))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the contribution is dropped, not retried", func() {
					convey.So(processor.wasProcessed("c-2"), convey.ShouldBeFalse)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When context is cancelled", func() {
			w := worker.NewInMemoryWorker(queue, processor)
			ctx, cancel := context.WithCancel(context.Background())

			go w.Run(ctx)
			time.Sleep(10 * time.Millisecond)

			cancel()
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the worker should stop accepting work", func() {
				queue.add(testContribution("c-late", "emp-late"))
				time.Sleep(50 * time.Millisecond)
				convey.So(processor.wasProcessed("c-late"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new worker pool", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		processor := newMockProcessor()

		convey.Convey("When creating a pool with default count", func() {
			pool := worker.NewPool(0, queue, processor)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When starting a pool", func() {
			pool := worker.NewPool(2, queue, processor)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(20 * time.Millisecond)

			convey.Convey("And when processing multiple contributions", func() {
				for i := 1; i <= 3; i++ {
					queue.add(testContribution(fmt.Sprintf("c-%d", i), fmt.Sprintf("emp-%d", i)))
				}
				time.Sleep(100 * time.Millisecond)

				convey.Convey("Then all contributions should be processed", func() {
					for i := 1; i <= 3; i++ {
						convey.So(processor.wasProcessed(fmt.Sprintf("c-%d", i)), convey.ShouldBeTrue)
					}
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When stopping a pool", func() {
			pool := worker.NewPool(2, queue, processor)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(20 * time.Millisecond)

			start := time.Now()
			pool.Stop()
			elapsed := time.Since(start)
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then it should return without waiting out the per-worker timeout", func() {
				convey.So(elapsed, convey.ShouldBeLessThan, time.Second)
			})

			convey.Convey("And workers no longer pick up contributions", func() {
				queue.add(testContribution("c-after-stop", "emp-x"))
				time.Sleep(50 * time.Millisecond)
				convey.So(processor.wasProcessed("c-after-stop"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a pool with multiple workers", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		processor := newMockProcessor()

		pool := worker.NewPool(4, queue, processor)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool.Start(ctx)
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When many contributions arrive concurrently", func() {
			const total = 100
			var wg sync.WaitGroup

			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(producer int) {
					defer wg.Done()
					for j := 0; j < total/5; j++ {
						queue.add(testContribution(
							fmt.Sprintf("c-%d-%d", producer, j),
							fmt.Sprintf("emp-%d-%d", producer, j),
						))
					}
				}(i)
			}

			wg.Wait()
			time.Sleep(200 * time.Millisecond)

			convey.Convey("Then every contribution should be processed once", func() {
				processed := 0
				for i := 0; i < 5; i++ {
					for j := 0; j < total/5; j++ {
						if processor.wasProcessed(fmt.Sprintf("c-%d-%d", i, j)) {
							processed++
						}
					}
				}
				convey.So(processed, convey.ShouldEqual, total)
			})
		})
	})
}

func TestWorkerQueueClosure(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		processor := newMockProcessor()

		w := worker.NewInMemoryWorker(queue, processor)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When the queue channel is closed", func() {
			_ = queue.Close()
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then shutdown should complete immediately", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}
