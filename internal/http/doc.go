// Package http provides the HTTP client behind the JSONL streamer.
//
// This package handles:
//   - HEAD probes for resource metadata and range-support detection
//   - Open-ended range requests for byte-offset resumption
//   - ETag extraction for source-change detection
//   - Error classification (transient vs. fatal)
//
// It deliberately performs no retries: each call issues exactly one request,
// and IsTransient tells the caller whether a failure is worth scheduling
// again. The streaming pipeline owns the retry budget.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Probe the resource
//	info, err := client.Head(ctx, url)
//	// info.Size, info.ETag, info.AcceptsRanges
//
//	// Stream from a byte offset
//	body, err := client.Open(ctx, url, startByte)
//	defer body.Close()
package http
