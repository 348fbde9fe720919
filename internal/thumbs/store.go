package thumbs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"rehearse-backend/internal/utils"
)

const (
	Positive = "positive"
	Negative = "negative"
)

var ErrInvalidPolarity = errors.New("invalid feedback type")

type Record struct {
	AgentMessage    string `json:"agent_message"`
	CustomerMessage string `json:"customer_message"`
	Feedback        string `json:"feedback"`
}

func ValidPolarity(polarity string) bool {
	return polarity == Positive || polarity == Negative
}

// Store appends thumbs feedback to <dir>/<polarity>.json, one JSON object per line.
type Store struct {
	dir   string
	locks *utils.KeyedLock[string]
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: utils.NewKeyedLock[string](2)}
}

func (s *Store) Path(polarity string) string {
	return filepath.Join(s.dir, polarity+".json")
}

// Save appends rec to the file of its polarity unless an identical record is
// already present. It reports whether a line was written.
func (s *Store) Save(rec Record) (bool, error) {
	if !ValidPolarity(rec.Feedback) {
		return false, fmt.Errorf("%w: '%s'", ErrInvalidPolarity, rec.Feedback)
	}

	release, err := s.locks.Acquire(rec.Feedback)
	if err != nil {
		return false, fmt.Errorf("error locking %s feedback file: %w", rec.Feedback, err)
	}
	defer release()

	path := s.Path(rec.Feedback)

	exists, err := contains(path, rec)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := os.MkdirAll(s.dir, os.ModePerm); err != nil {
		return false, fmt.Errorf("error creating feedback directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("error opening feedback file: %w", err)
	}
	defer file.Close()

	line, err := encodeLine(rec)
	if err != nil {
		return false, err
	}
	if _, err := file.Write(line); err != nil {
		return false, fmt.Errorf("error writing feedback: %w", err)
	}

	return true, nil
}

func contains(path string, rec Record) (bool, error) {
	found := false
	err := scan(path, func(existing Record) bool {
		if existing == rec {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// Keeps non-ASCII text verbatim instead of \u escapes.
func encodeLine(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("error encoding feedback: %w", err)
	}
	return buf.Bytes(), nil
}

// scan calls visit for every parseable line of path until visit returns false.
// A missing file has no records.
func scan(path string, visit func(Record) bool) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			slog.Warn("skipping invalid json line", "path", path, "line", lineNo, "error", err)
			continue
		}
		if !visit(rec) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// Load reads every valid record of a JSON-lines file.
func Load(path string) ([]Record, error) {
	var records []Record
	err := scan(path, func(rec Record) bool {
		records = append(records, rec)
		return true
	})
	return records, err
}
