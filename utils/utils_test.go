package utils_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"anarchy.ttfm/straight/utils"
	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func Test_Go(t *testing.T) {
	t.Run("Panic", func(t *testing.T) {
		assertions := assert.New(t)

		var out syncBuffer
		logger := slog.New(slog.NewTextHandler(&out, nil))

		done := utils.Go(logger, "exploding", func() error {
			panic("boom")
		})
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("task never finished")
		}

		assertions.Contains(out.String(), "detached task panicked")
		assertions.Contains(out.String(), "task=exploding")
		assertions.Contains(out.String(), "boom")
	})
	t.Run("Error", func(t *testing.T) {
		assertions := assert.New(t)

		var out syncBuffer
		logger := slog.New(slog.NewTextHandler(&out, nil))

		<-utils.Go(logger, "failing", func() error {
			return errors.New("no wallet")
		})

		assertions.Contains(out.String(), "detached task failed")
		assertions.Contains(out.String(), "no wallet")
	})
	t.Run("Isolated", func(t *testing.T) {
		assertions := assert.New(t)

		logger := slog.New(slog.NewTextHandler(&syncBuffer{}, nil))

		var completed atomic.Int64
		var tasks []<-chan struct{}
		for i := range 10 {
			tasks = append(tasks, utils.Go(logger, "mixed", func() error {
				if i%2 == 0 {
					panic(i)
				}
				completed.Add(1)
				return nil
			}))
		}
		for _, done := range tasks {
			<-done
		}

		assertions.Equal(int64(5), completed.Load())
	})
}

func Test_JobsPull(t *testing.T) {
	assertions := assert.New(t)

	const size = 3
	jobs := utils.NewJobsPull(size)

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		jobs.Get()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer jobs.Put()

			now := running.Add(1)
			for {
				old := peak.Load()
				if now <= old || peak.CompareAndSwap(old, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	assertions.LessOrEqual(peak.Load(), int64(size))
}

func Test_MapInt(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 3}, utils.MapInt[int, uint64]([]int{1, 2, 3}))
}
