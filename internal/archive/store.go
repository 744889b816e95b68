// Package archive persists generated audio clips in a NATS JetStream object
// store and announces them on a subject, so downstream consumers (and the
// UI's history view) can fetch what the widget played. Archival is best
// effort: failures are logged by the caller, never shown to the widget.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/tts-webui/internal/core"
)

// Store implements core.ArtifactStore using NATS JetStream.
type Store struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// NewStore creates the object store bucket if needed and binds to it.
func NewStore(jetstreamContext nats.JetStreamContext, bucketName string) (*Store, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Generated audio for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to bind to existing object store bucket '%s': %w",
					bucketName, err,
				)
			}
		} else {
			return nil, fmt.Errorf(
				"failed to create object store bucket '%s': %w",
				bucketName, err,
			)
		}
	}

	return &Store{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// Download retrieves an archived clip.
func (s *Store) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to get object '%s' from bucket '%s': %w", key, s.bucket, err,
		)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves a clip under the given key.
func (s *Store) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := s.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf(
			"failed to put object '%s' to bucket '%s': %w", key, s.bucket, err,
		)
	}

	return nil
}

// enforce the interface at compile time.
var _ core.ArtifactStore = (*Store)(nil)
