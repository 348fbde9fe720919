package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"rehearse-backend/internal/utils"

	"github.com/go-resty/resty/v2"
)

var ErrSynthesisFailed = errors.New("speech synthesis failed")

// The TTS endpoint rejects requests longer than this many characters.
const maxPieceChars = 200

// TTS synthesizes MP3 speech with the Google Translate TTS endpoint.
type TTS struct {
	client   *resty.Client
	language string
}

func NewTTS(baseURL, language string, timeout time.Duration) *TTS {
	return &TTS{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		language: language,
	}
}

func (t *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	pieces := utils.SplitTextMaxChars(text, maxPieceChars)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no text to synthesize", ErrSynthesisFailed)
	}

	var audio bytes.Buffer
	for i, piece := range pieces {
		res, err := t.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"ie":      "UTF-8",
				"client":  "tw-ob",
				"tl":      t.language,
				"q":       piece,
				"total":   strconv.Itoa(len(pieces)),
				"idx":     strconv.Itoa(i),
				"textlen": strconv.Itoa(len([]rune(piece))),
			}).
			Get("/translate_tts")

		if err != nil {
			slog.Error("unable to reach tts service", "error", err)
			return nil, errors.Join(ErrSynthesisFailed, err)
		}

		if !res.IsSuccess() {
			slog.Error("tts service returned error", "status_code", res.StatusCode())
			return nil, fmt.Errorf("%w: status %d", ErrSynthesisFailed, res.StatusCode())
		}

		// MP3 frames can be concatenated directly.
		audio.Write(res.Body())
	}

	return audio.Bytes(), nil
}
