package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"rehearse-backend/internal/storage"

	"github.com/google/uuid"
)

const audioExt = ".mp3"

var audioNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+\.mp3$`)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore keeps synthesized replies as <uuid>.mp3 objects in one bucket.
type AudioStore struct {
	tts      Synthesizer
	provider storage.Provider
	bucket   string
}

func NewAudioStore(tts Synthesizer, provider storage.Provider, bucket string) *AudioStore {
	return &AudioStore{tts: tts, provider: provider, bucket: bucket}
}

func ValidAudioName(name string) bool {
	return audioNameRe.MatchString(name)
}

// Save synthesizes text and stores it, returning the object name.
func (s *AudioStore) Save(ctx context.Context, text string) (string, error) {
	audio, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	name := uuid.New().String() + audioExt
	if err := s.provider.PutObject(ctx, s.bucket, name, bytes.NewReader(audio)); err != nil {
		return "", fmt.Errorf("error storing audio %s: %w", name, err)
	}

	return name, nil
}

func (s *AudioStore) Open(ctx context.Context, name string) ([]byte, error) {
	if !ValidAudioName(name) {
		return nil, fmt.Errorf("invalid audio name '%s'", name)
	}
	return s.provider.GetObject(ctx, s.bucket, name)
}

// RemoveAll deletes every stored audio file and returns how many were removed.
func (s *AudioStore) RemoveAll(ctx context.Context) (int, error) {
	objects, err := s.provider.ListObjects(ctx, s.bucket, "")
	if err != nil {
		return 0, fmt.Errorf("error listing audio files: %w", err)
	}

	removed := 0
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Name, audioExt) {
			continue
		}
		if err := s.provider.DeleteObject(ctx, s.bucket, obj.Name); err != nil {
			slog.Error("error removing audio file", "name", obj.Name, "error", err)
			return removed, fmt.Errorf("error removing audio file %s: %w", obj.Name, err)
		}
		removed++
	}

	slog.Info("removed audio files", "count", removed)
	return removed, nil
}
