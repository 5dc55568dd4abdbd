package command

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// CommandQueue decouples network handlers from game mutations. With the
// default single worker, commands are applied in arrival order.
type CommandQueue struct {
	commands chan Command
	handler  *Handler
	workers  int
	wg       sync.WaitGroup
	running  atomic.Bool
	stopChan chan struct{}

	// Metrics
	enqueued    atomic.Uint64
	processed   atomic.Uint64
	failed      atomic.Uint64
	dropped     atomic.Uint64
	avgWaitTime atomic.Int64 // nanoseconds, exponential moving average
}

// QueueConfig holds configuration for the command queue
type QueueConfig struct {
	BufferSize int // Number of commands to buffer (default: 256)
	Workers    int // Number of worker goroutines (default: 1)
}

// DefaultQueueConfig returns the production defaults
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		BufferSize: 256,
		Workers:    1, // more than one worker gives up ordering
	}
}

// NewCommandQueue creates a new command queue
func NewCommandQueue(handler *Handler, config QueueConfig) *CommandQueue {
	if config.BufferSize <= 0 {
		config.BufferSize = 256
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	return &CommandQueue{
		commands: make(chan Command, config.BufferSize),
		handler:  handler,
		workers:  config.Workers,
		stopChan: make(chan struct{}),
	}
}

// Start launches the workers
func (q *CommandQueue) Start() {
	if q.running.Swap(true) {
		return // Already running
	}

	log.Printf("🚀 CommandQueue starting with %d workers, buffer size %d", q.workers, cap(q.commands))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Stop drains what is already queued, then shuts the workers down
func (q *CommandQueue) Stop() {
	if !q.running.Swap(false) {
		return // Not running
	}

	close(q.stopChan)
	q.wg.Wait()

	log.Printf("📊 CommandQueue stopped - enqueued: %d, processed: %d, failed: %d, dropped: %d",
		q.enqueued.Load(), q.processed.Load(), q.failed.Load(), q.dropped.Load())
}

// Enqueue adds a command to the queue (non-blocking)
// Returns true if enqueued, false if the queue is full or stopped
func (q *CommandQueue) Enqueue(cmd Command) bool {
	if !q.running.Load() {
		q.dropped.Add(1)
		return false
	}

	cmd.ReceivedAt = time.Now()

	select {
	case q.commands <- cmd:
		q.enqueued.Add(1)
		return true
	default:
		q.dropped.Add(1)
		if q.dropped.Load()%100 == 1 {
			log.Printf("⚠️ CommandQueue full, dropped %s from %s (total dropped: %d)",
				cmd.Name, cmd.Source, q.dropped.Load())
		}
		return false
	}
}

func (q *CommandQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case cmd := <-q.commands:
			q.process(cmd)
		case <-q.stopChan:
			// Drain
			for {
				select {
				case cmd := <-q.commands:
					q.process(cmd)
				default:
					return
				}
			}
		}
	}
}

func (q *CommandQueue) process(cmd Command) {
	waitTime := time.Since(cmd.ReceivedAt)
	q.updateAvgWaitTime(waitTime)

	if waitTime > 100*time.Millisecond {
		log.Printf("⚠️ Command from %s waited %.1fms in queue",
			cmd.Source, float64(waitTime.Microseconds())/1000)
	}

	if err := q.handler.ProcessCommand(cmd); err != nil {
		q.failed.Add(1)
	}
	q.processed.Add(1)
}

// updateAvgWaitTime updates exponential moving average
func (q *CommandQueue) updateAvgWaitTime(waitTime time.Duration) {
	current := q.avgWaitTime.Load()
	// EMA with alpha = 0.1
	newAvg := (current*9 + waitTime.Nanoseconds()) / 10
	q.avgWaitTime.Store(newAvg)
}

// Stats returns current queue statistics
func (q *CommandQueue) Stats() QueueStats {
	return QueueStats{
		Enqueued:       q.enqueued.Load(),
		Processed:      q.processed.Load(),
		Failed:         q.failed.Load(),
		Dropped:        q.dropped.Load(),
		Pending:        uint64(len(q.commands)),
		BufferSize:     uint64(cap(q.commands)),
		AvgWaitTimeMs:  float64(q.avgWaitTime.Load()) / 1e6,
		BufferUsagePct: float64(len(q.commands)) / float64(cap(q.commands)) * 100,
	}
}

// QueueStats holds queue metrics
type QueueStats struct {
	Enqueued       uint64  `json:"enqueued"`
	Processed      uint64  `json:"processed"`
	Failed         uint64  `json:"failed"`
	Dropped        uint64  `json:"dropped"`
	Pending        uint64  `json:"pending"`
	BufferSize     uint64  `json:"buffer_size"`
	AvgWaitTimeMs  float64 `json:"avg_wait_time_ms"`
	BufferUsagePct float64 `json:"buffer_usage_pct"`
}
