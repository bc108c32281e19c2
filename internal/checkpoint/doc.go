// Package checkpoint persists stream resume state to cloud or local storage.
//
// The streaming pipeline itself owns no persistent state: resumption works by
// the caller recording the last consumed location and passing it back in.
// This package is that recording, storage-agnostic via gocloud.dev/blob so a
// checkpoint can live in S3, GCS, a local directory, or memory (tests).
//
// # Usage
//
//	store, err := checkpoint.Open(ctx, "file:///var/lib/streamjsonl", "events.checkpoint.json")
//	defer store.Close()
//
//	state, found, err := store.Load(ctx)
//	// found == false on first run
//
//	store.Save(ctx, checkpoint.State{Location: rec.Location, ETag: etag})
//	store.Clear(ctx) // after a clean end of stream
package checkpoint
