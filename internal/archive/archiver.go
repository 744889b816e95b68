package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/tts-webui/internal/core"
)

// Archiver uploads generated WAV clips to the artifact store and publishes
// an AudioChunkCreatedEvent for each one.
type Archiver struct {
	natsConnection *nats.Conn
	store          core.ArtifactStore
	subject        string
	log            *logger.Logger
}

// NewArchiver creates an archiver publishing on the given subject.
func NewArchiver(
	natsConnection *nats.Conn,
	store core.ArtifactStore,
	subject string,
	log *logger.Logger,
) *Archiver {
	return &Archiver{
		natsConnection: natsConnection,
		store:          store,
		subject:        subject,
		log:            log,
	}
}

// Archive stores the WAV bytes under a fresh key and announces the new
// artifact. It returns the key the clip was stored under.
func (a *Archiver) Archive(ctx context.Context, wav []byte) (string, error) {
	audioKey := uuid.NewString() + ".wav"

	err := a.store.Upload(ctx, audioKey, wav)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	event := &events.AudioChunkCreatedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		AudioKey:   audioKey,
		PageNumber: 1,
		TotalPages: 1,
	}

	err = a.publish(event)
	if err != nil {
		return audioKey, err
	}

	a.log.Info("Archived generated audio as %s", audioKey)

	return audioKey, nil
}

func (a *Archiver) publish(event *events.AudioChunkCreatedEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audio created event: %w", err)
	}

	err = a.natsConnection.Publish(a.subject, eventData)
	if err != nil {
		return fmt.Errorf("failed to publish audio created event: %w", err)
	}

	return nil
}
