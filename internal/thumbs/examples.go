package thumbs

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Examples holds the seed datasets read from the data directory at startup.
type Examples struct {
	Positive     []Record
	Negative     []Record
	Conversation []Record
}

func LoadExamples(dir string) (*Examples, error) {
	var examples Examples

	for name, target := range map[string]*[]Record{
		"positive.json":     &examples.Positive,
		"negative.json":     &examples.Negative,
		"conversation.json": &examples.Conversation,
	} {
		records, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", name, err)
		}
		*target = records
	}

	slog.Info("loaded example datasets", "positive", len(examples.Positive), "negative", len(examples.Negative), "conversation", len(examples.Conversation))

	return &examples, nil
}

// Objections returns the customer lines of the conversation dataset.
func (e *Examples) Objections() []string {
	var lines []string
	for _, rec := range e.Conversation {
		if rec.CustomerMessage != "" {
			lines = append(lines, rec.CustomerMessage)
		}
	}
	return lines
}
