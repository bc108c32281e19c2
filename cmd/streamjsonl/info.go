package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	fetchhttp "github.com/danielshawellis/stream-jsonl/internal/http"
	"github.com/danielshawellis/stream-jsonl/internal/progress"
)

func runInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)

	url := fs.String("url", "", "Source URL (required)")
	timeout := fs.Duration("timeout", 30*time.Second, "Request timeout")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: streamjsonl info [options]

Probe a remote resource and print its size, ETag, content type, and whether
the server supports byte-range resumption.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *url == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := fetchhttp.DefaultOptions()
	opts.Timeout = *timeout
	client := fetchhttp.NewClient(opts)

	info, err := client.Head(ctx, *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSourceNotAccess
	}

	fmt.Printf("URL:            %s\n", *url)
	if info.Size >= 0 {
		fmt.Printf("Size:           %s (%d bytes)\n", progress.FormatBytes(info.Size), info.Size)
	} else {
		fmt.Printf("Size:           unknown\n")
	}
	fmt.Printf("ETag:           %s\n", orNone(info.ETag))
	fmt.Printf("Content-Type:   %s\n", orNone(info.ContentType))
	fmt.Printf("Ranges:         %v\n", info.AcceptsRanges)
	if !info.LastModified.IsZero() {
		fmt.Printf("Last-Modified:  %s\n", info.LastModified.Format(time.RFC1123))
	}

	return ExitSuccess
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
