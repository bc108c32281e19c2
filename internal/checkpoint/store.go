package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/danielshawellis/stream-jsonl/pkg/jsonl"
)

// Store persists stream checkpoints to a blob bucket. A checkpoint is the
// last consumed jsonl.FileLocation plus the source ETag observed when it was
// written, so a resumed run can detect that the resource changed underneath
// it.
type Store struct {
	bucket *blob.Bucket
	key    string
	owned  bool
}

// State is the persisted checkpoint document.
type State struct {
	Location jsonl.FileLocation `json:"location"`
	ETag     string             `json:"etag,omitempty"`
	URL      string             `json:"url,omitempty"`
}

// Open opens a checkpoint store at key inside the bucket at bucketURL
// (any URL gocloud.dev/blob understands: file://, s3://, gs://, mem://).
func Open(ctx context.Context, bucketURL, key string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open bucket: %w", err)
	}
	return &Store{bucket: bucket, key: key, owned: true}, nil
}

// New wraps an existing bucket handle. The caller keeps ownership of the
// bucket; Close will not close it.
func New(bucket *blob.Bucket, key string) *Store {
	return &Store{bucket: bucket, key: key}
}

// Load reads the stored checkpoint. The second return is false when no
// checkpoint exists, which is a normal first-run condition, not an error.
func (s *Store) Load(ctx context.Context) (State, bool, error) {
	data, err := s.bucket.ReadAll(ctx, s.key)
	if err != nil {
		if isNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("checkpoint: read state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("checkpoint: unmarshal state: %w", err)
	}
	return st, true, nil
}

// Save persists the checkpoint. Last write wins; with a stream consumed in
// order, a lost update only means slightly more replay on resume.
func (s *Store) Save(ctx context.Context, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal state: %w", err)
	}
	if err := s.bucket.WriteAll(ctx, s.key, data, nil); err != nil {
		return fmt.Errorf("checkpoint: write state: %w", err)
	}
	return nil
}

// Clear removes the checkpoint, typically after a stream completes cleanly.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.bucket.Delete(ctx, s.key); err != nil && !isNotExist(err) {
		return fmt.Errorf("checkpoint: delete state: %w", err)
	}
	return nil
}

// Close releases the bucket handle if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.bucket.Close()
}

// isNotExist returns true if the error indicates the object doesn't exist.
func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
