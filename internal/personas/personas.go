package personas

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrPersonaNotFound = errors.New("persona not found")

// Prompt attributes in the order they are described to the model. The
// Category attribute is read from the Categories column.
var profileColumns = []struct {
	Attribute string
	Column    string
}{
	{"Age", "Age"},
	{"Gender", "Gender"},
	{"Occupation", "Occupation"},
	{"Marital Status", "Marital Status"},
	{"Income Range", "Income Range"},
	{"Location", "Location"},
	{"Financial Goals", "Financial Goals"},
	{"Category", "Categories"},
}

type Attribute struct {
	Name  string
	Value string
}

// Catalog holds every persona row in file order. A name repeated in the file
// keeps all of its rows; Get returns the first of them and Profile the last.
type Catalog struct {
	rows  []map[string]string
	first map[string]int
	last  map[string]int
}

func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening persona file: %w", err)
	}
	defer file.Close()

	return Load(file)
}

func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading persona header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	nameCol := -1
	for i, col := range header {
		if col == "Name" {
			nameCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("persona file has no Name column")
	}

	catalog := &Catalog{first: make(map[string]int), last: make(map[string]int)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading persona row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}

		name := row["Name"]
		if _, exists := catalog.first[name]; !exists {
			catalog.first[name] = len(catalog.rows)
		}
		catalog.last[name] = len(catalog.rows)
		catalog.rows = append(catalog.rows, row)
	}

	return catalog, nil
}

// All returns every persona row with all of its columns.
func (c *Catalog) All() []map[string]string {
	return c.rows
}

func (c *Catalog) Get(name string) (map[string]string, bool) {
	i, ok := c.first[name]
	if !ok {
		return nil, false
	}
	return c.rows[i], true
}

func (c *Catalog) Profile(name string) ([]Attribute, error) {
	i, ok := c.last[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrPersonaNotFound, name)
	}
	row := c.rows[i]

	attrs := make([]Attribute, 0, len(profileColumns))
	for _, col := range profileColumns {
		attrs = append(attrs, Attribute{Name: col.Attribute, Value: row[col.Column]})
	}
	return attrs, nil
}

func FormatProfile(attrs []Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, attr.Name+": "+attr.Value)
	}
	return strings.Join(parts, ", ")
}
