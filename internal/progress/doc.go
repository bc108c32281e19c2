// Package progress provides progress reporting for long-running streams.
//
// This package outputs human-readable progress information to stderr:
// records consumed, byte position, consumption rate, and reconnect count.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    SourceURL: url,
//	    TotalSize: size,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as records are consumed
//	reporter.RecordStreamed(rec.Location.ByteOffset)
//
// # Output Format
//
//	[stream-jsonl] Streaming: https://example.com/events.jsonl.gz
//	[stream-jsonl] Records: 48210 | 11.53 MB | 82.1% | 9500 rec/s | Retries: 1
package progress
