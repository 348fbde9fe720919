package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"
)

type Document struct {
	Name    string
	Content []byte
}

const maxParallelExtractions = 4

func pdfText(contents []byte) (string, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var text strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("error reading page %d: %w", i, err)
		}
		text.WriteString(page)
	}

	return text.String(), nil
}

// ExtractText returns the text of every document concatenated in the given
// order. Documents that cannot be read are logged and skipped.
func ExtractText(ctx context.Context, docs []Document) (string, error) {
	texts := make([]string, len(docs))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelExtractions)

	for i, doc := range docs {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := pdfText(doc.Content)
			if err != nil {
				slog.Error("error reading pdf file", "file", doc.Name, "error", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return "", err
	}

	return strings.Join(texts, ""), nil
}
