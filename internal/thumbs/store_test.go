package thumbs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestSaveDeduplicates(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	rec := Record{AgentMessage: "यह योजना आपके लिए सही है", CustomerMessage: "कितना खर्च होगा?", Feedback: Positive}

	saved, err := store.Save(rec)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = store.Save(rec)
	require.NoError(t, err)
	assert.False(t, saved)

	lines := readLines(t, filepath.Join(dir, "positive.json"))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "यह योजना आपके लिए सही है")

	// Same messages, other polarity, goes to the other file.
	rec.Feedback = Negative
	saved, err = store.Save(rec)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Len(t, readLines(t, filepath.Join(dir, "negative.json")), 1)
}

func TestSaveRejectsInvalidPolarity(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	for _, polarity := range []string{"", "neutral", "Positive"} {
		_, err := store.Save(Record{AgentMessage: "a", CustomerMessage: "c", Feedback: polarity})
		assert.ErrorIs(t, err, ErrInvalidPolarity)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveConcurrentDuplicates(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	rec := Record{AgentMessage: "a", CustomerMessage: "c", Feedback: Negative}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Save(rec)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, readLines(t, filepath.Join(dir, "negative.json")), 1)
}

func TestLoadSkipsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conversation.json")
	content := `{"agent_message":"","customer_message":"बहुत महंगा है","feedback":""}
not json

{"agent_message":"hi","customer_message":"hello","feedback":"positive"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "hello", records[1].CustomerMessage)

	missing, err := Load(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLoadExamples(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Save(Record{AgentMessage: "a", CustomerMessage: "c", Feedback: Positive})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conversation.json"), []byte(`{"customer_message":"मुझे सोचने का समय चाहिए"}`+"\n"), 0644))

	examples, err := LoadExamples(dir)
	require.NoError(t, err)
	assert.Len(t, examples.Positive, 1)
	assert.Empty(t, examples.Negative)
	assert.Equal(t, []string{"मुझे सोचने का समय चाहिए"}, examples.Objections())
}
