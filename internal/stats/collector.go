package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the side of the collector the engine uses.
type Writer interface {
	AddFilesIndexed(n int64)
	AddBytesIndexed(n int64)
	AddFilesHashed(n int64)
	AddBytesHashed(n int64)
	AddHashFailed(n int64)
	AddGroupsFound(n int64)
	AddFilesDeleted(n int64)
	AddBytesFreed(n int64)
	AddDeleteFailed(n int64)
	AddWarnings(n int64)
	SetHashTotals(files, bytes int64)
	DropHashWork(files, bytes int64)
}

// Reader is the side of the collector presenters use.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
	ETA() time.Duration
}

// ReadTicker is a Reader that also owns the throughput ring buffer.
type ReadTicker interface {
	Reader
	Tick()
	SparklineData(n int) []float64
}

// Collector tracks run statistics using lock-free atomic counters.
type Collector struct {
	startTime time.Time

	filesIndexed atomic.Int64
	bytesIndexed atomic.Int64
	filesHashed  atomic.Int64
	bytesHashed  atomic.Int64
	hashFailed   atomic.Int64
	filesTotal   atomic.Int64 // files scheduled for hashing
	bytesTotal   atomic.Int64 // bytes scheduled for hashing
	groupsFound  atomic.Int64
	filesDeleted atomic.Int64
	bytesFreed   atomic.Int64
	deleteFailed atomic.Int64
	warnings     atomic.Int64

	// Ring buffer, written only by the presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // hashed bytes delta per tick
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesIndexed int64
	BytesIndexed int64
	FilesHashed  int64
	BytesHashed  int64
	HashFailed   int64
	FilesTotal   int64
	BytesTotal   int64
	GroupsFound  int64
	FilesDeleted int64
	BytesFreed   int64
	DeleteFailed int64
	Warnings     int64
	Elapsed      time.Duration
}

// SetHashTotals records how much work the hashing stage has in front of it.
// Called once per hashing pass.
func (c *Collector) SetHashTotals(files, bytes int64) {
	c.filesTotal.Store(files)
	c.bytesTotal.Store(bytes)
}

// DropHashWork takes files that failed to hash out of the totals, so
// progress still reaches 100% and the ETA covers only work that remains.
func (c *Collector) DropHashWork(files, bytes int64) {
	c.filesTotal.Add(-files)
	c.bytesTotal.Add(-bytes)
}

func (c *Collector) AddFilesIndexed(n int64) { c.filesIndexed.Add(n) }
func (c *Collector) AddBytesIndexed(n int64) { c.bytesIndexed.Add(n) }
func (c *Collector) AddFilesHashed(n int64)  { c.filesHashed.Add(n) }
func (c *Collector) AddBytesHashed(n int64)  { c.bytesHashed.Add(n) }
func (c *Collector) AddHashFailed(n int64)   { c.hashFailed.Add(n) }
func (c *Collector) AddGroupsFound(n int64)  { c.groupsFound.Add(n) }
func (c *Collector) AddFilesDeleted(n int64) { c.filesDeleted.Add(n) }
func (c *Collector) AddBytesFreed(n int64)   { c.bytesFreed.Add(n) }
func (c *Collector) AddDeleteFailed(n int64) { c.deleteFailed.Add(n) }
func (c *Collector) AddWarnings(n int64)     { c.warnings.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesIndexed: c.filesIndexed.Load(),
		BytesIndexed: c.bytesIndexed.Load(),
		FilesHashed:  c.filesHashed.Load(),
		BytesHashed:  c.bytesHashed.Load(),
		HashFailed:   c.hashFailed.Load(),
		FilesTotal:   c.filesTotal.Load(),
		BytesTotal:   c.bytesTotal.Load(),
		GroupsFound:  c.groupsFound.Load(),
		FilesDeleted: c.filesDeleted.Load(),
		BytesFreed:   c.bytesFreed.Load(),
		DeleteFailed: c.deleteFailed.Load(),
		Warnings:     c.warnings.Load(),
		Elapsed:      c.Elapsed(),
	}
}

// Tick snapshots the hashed-bytes delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesHashed.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average hashed bytes/sec over the last n samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns up to n recent throughput samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	out := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		out[i] = float64(c.throughput[idx])
	}
	return out
}

// ETA estimates the remaining hashing time from rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesHashed.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"indexed=%d hashed=%d hash_failed=%d groups=%d deleted=%d freed=%d delete_failed=%d warnings=%d",
		s.FilesIndexed, s.FilesHashed, s.HashFailed, s.GroupsFound,
		s.FilesDeleted, s.BytesFreed, s.DeleteFailed, s.Warnings,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
