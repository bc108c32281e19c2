package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// SourceURL is the URL being streamed (for display).
	SourceURL string

	// TotalSize is the resource size in bytes, 0 when unknown.
	TotalSize int64

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable streaming progress: records and bytes
// consumed, rates, and retry counts.
type Reporter struct {
	opts Options

	records atomic.Int64
	bytes   atomic.Int64
	retries atomic.Int64

	mu          sync.Mutex
	startTime   time.Time
	lastUpdate  time.Time
	lastRecords int64
	started     bool
	stopCh      chan struct{}
	done        chan struct{}
	stopped     bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.started = true
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[stream-jsonl] Streaming: %s\n", r.opts.SourceURL)
	if r.opts.TotalSize > 0 {
		fmt.Fprintf(r.opts.Output, "[stream-jsonl] Resource size: %s\n", FormatBytes(r.opts.TotalSize))
	}

	go r.updateLoop()
}

// Stop stops the progress reporter and prints a final summary. It blocks
// until the last line has been written.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if started {
		<-r.done
	}
}

// RecordStreamed accounts for one consumed record ending at byteOffset.
func (r *Reporter) RecordStreamed(byteOffset int64) {
	r.records.Add(1)
	r.bytes.Store(byteOffset)
}

// Retried accounts for one observed reconnect.
func (r *Reporter) Retried() {
	r.retries.Add(1)
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	records := r.records.Load()
	consumed := r.bytes.Load()

	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	rate := float64(records-r.lastRecords) / elapsed

	r.lastUpdate = now
	r.lastRecords = records

	var percent string
	if r.opts.TotalSize > 0 {
		percent = fmt.Sprintf(" | %.1f%%", float64(consumed)/float64(r.opts.TotalSize)*100)
	}

	fmt.Fprintf(r.opts.Output, "\r[stream-jsonl] Records: %d | %s%s | %.0f rec/s | Retries: %d    ",
		records,
		FormatBytes(consumed),
		percent,
		rate,
		r.retries.Load(),
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	records := r.records.Load()
	consumed := r.bytes.Load()
	duration := time.Since(r.startTime)

	rate := float64(records) / duration.Seconds()
	fmt.Fprintf(r.opts.Output, "\r[stream-jsonl] Records: %d | %s | Retries: %d | Done    \n",
		records,
		FormatBytes(consumed),
		r.retries.Load(),
	)
	fmt.Fprintf(r.opts.Output, "[stream-jsonl] Total time: %s | Average: %.0f rec/s\n",
		formatDuration(duration),
		rate,
	)
}

// FormatBytes formats bytes as a human-readable string.
func FormatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
