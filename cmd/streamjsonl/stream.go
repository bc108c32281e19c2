package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/danielshawellis/stream-jsonl/internal/checkpoint"
	"github.com/danielshawellis/stream-jsonl/internal/config"
	fetchhttp "github.com/danielshawellis/stream-jsonl/internal/http"
	"github.com/danielshawellis/stream-jsonl/internal/progress"
	"github.com/danielshawellis/stream-jsonl/pkg/jsonl"
)

func runStream(args []string) int {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)

	url := fs.String("url", "", "Source URL (required)")
	output := fs.String("output", "", "Output file path (default: stdout)")
	compression := fs.String("compression", "", "Payload compression: auto, gzip, or none")
	ckptBucket := fs.String("checkpoint", "", "Checkpoint bucket URL (file://, s3://, gs://, mem://)")
	ckptKey := fs.String("checkpoint-key", "", "Checkpoint object key")
	ckptInterval := fs.Int("checkpoint-interval", 0, "Persist checkpoint every N records")
	showProgress := fs.Bool("progress", false, "Show streaming progress")
	configPath := fs.String("config", "", "YAML config file path")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: streamjsonl stream [options]

Stream a newline-delimited JSON resource to stdout or a file, retrying
transient failures with exponential backoff. With -checkpoint, the last
consumed location is persisted periodically and an interrupted run resumes
from it automatically.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		URL:         *url,
		Output:      *output,
		Compression: *compression,
		Progress:    *showProgress,
		Checkpoint: config.CheckpointConfig{
			Bucket:   *ckptBucket,
			Key:      *ckptKey,
			Interval: *ckptInterval,
		},
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[stream-jsonl] Received interrupt, shutting down...")
		cancel()
	}()

	return streamToOutput(ctx, cfg)
}

func streamToOutput(ctx context.Context, cfg config.Config) int {
	// Open the output sink
	out := io.Writer(os.Stdout)
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening output: %v\n", err)
			return ExitGeneralError
		}
		defer f.Close()
		out = f
	}

	// Open the checkpoint store and load any prior state
	var store *checkpoint.Store
	var state checkpoint.State
	if cfg.Checkpoint.Bucket != "" {
		var err error
		store, err = checkpoint.Open(ctx, cfg.Checkpoint.Bucket, cfg.Checkpoint.Key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		defer store.Close()

		var found bool
		state, found, err = store.Load(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		if found {
			if state.URL != "" && state.URL != cfg.URL {
				fmt.Fprintf(os.Stderr, "Error: checkpoint belongs to %s, streaming %s\n", state.URL, cfg.URL)
				return ExitInvalidArgs
			}
			fmt.Fprintf(os.Stderr, "[stream-jsonl] Resuming from %s\n", state.Location)
		}
	}

	opts := []jsonl.Option{
		jsonl.WithBackoff(jsonl.Backoff{
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			MaxRetryTime: cfg.Retry.MaxRetryTime,
		}),
	}
	switch cfg.Compression {
	case "gzip":
		opts = append(opts, jsonl.WithCompression(jsonl.CompressionGzip))
	case "none":
		opts = append(opts, jsonl.WithCompression(jsonl.CompressionNone))
	}
	if !state.Location.IsZero() {
		opts = append(opts, jsonl.WithStartLocation(state.Location))
		if state.ETag != "" {
			opts = append(opts, jsonl.WithETag(state.ETag))
		}
	}

	s, err := jsonl.Open(ctx, cfg.URL, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	defer s.Close()

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{SourceURL: cfg.URL})
		reporter.Start()
		defer reporter.Stop()
	}

	sinceCheckpoint := 0
	var seenRetries int64
	for s.Next() {
		rec := s.Record()

		if _, err := out.Write(append(rec.Value, '\n')); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			return ExitGeneralError
		}
		if reporter != nil {
			reporter.RecordStreamed(rec.Location.ByteOffset)
			for ; seenRetries < s.Retries(); seenRetries++ {
				reporter.Retried()
			}
		}

		sinceCheckpoint++
		if store != nil && sinceCheckpoint >= cfg.Checkpoint.Interval {
			if err := store.Save(ctx, checkpoint.State{
				Location: rec.Location,
				ETag:     s.ETag(),
				URL:      cfg.URL,
			}); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitStorageError
			}
			sinceCheckpoint = 0
		}
	}

	if err := s.Err(); err != nil {
		// Persist the restart point before reporting, so a rerun resumes.
		if store != nil {
			saveErr := store.Save(context.WithoutCancel(ctx), checkpoint.State{
				Location: s.Location(),
				ETag:     s.ETag(),
				URL:      cfg.URL,
			})
			if saveErr != nil {
				fmt.Fprintf(os.Stderr, "Error saving checkpoint: %v\n", saveErr)
			}
		}

		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[stream-jsonl] Interrupted at %s\n", s.Location())
			return ExitSuccess
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, jsonl.ErrSourceChanged) {
			return ExitSourceChanged
		}
		if errors.Is(err, fetchhttp.ErrNotFound) || errors.Is(err, fetchhttp.ErrForbidden) ||
			errors.Is(err, fetchhttp.ErrUnauthorized) {
			return ExitSourceNotAccess
		}
		fmt.Fprintln(os.Stderr, "[stream-jsonl] Run again to resume")
		return ExitStreamFailed
	}

	// Clean end of stream: the checkpoint has served its purpose.
	if store != nil {
		if err := store.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
	}

	return ExitSuccess
}
