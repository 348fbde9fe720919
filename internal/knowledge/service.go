package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rehearse-backend/internal/llm"

	"github.com/tmc/langchaingo/textsplitter"
)

var (
	ErrNoText        = errors.New("no text found in uploaded documents")
	ErrEmptyQuestion = errors.New("no question provided")
	ErrIndexEmpty    = errors.New("no documents have been indexed")
)

const NotInContext = "उत्तर संदर्भ में उपलब्ध नहीं है"

const qaPrompt = `
You are proficient in Hindi. Answer the question(s) in a detailed and well-structured manner based on the provided context.
If there are multiple questions, separate your answers clearly, starting each new answer on a new line with a line space before it.
Ensure that each section is well-separated and clearly labeled if appropriate.
Organize the response into clear paragraphs, and include bullet points if necessary.
If the answer is not found in the provided context, simply state, "` + NotInContext + `" (answer is not available in the context).
Do not provide any incorrect information.

संदर्भ (Context):
 {context}

प्रश्न (Question):
{question}

उत्तर (Answer):
`

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	K            int
}

type IngestResult struct {
	Documents int
	Chunks    int
}

type Service struct {
	index    *Index
	embedder llm.Embedder
	llm      llm.Client
	splitter textsplitter.RecursiveCharacter
	k        int
}

func NewService(index *Index, embedder llm.Embedder, client llm.Client, opts Options) *Service {
	return &Service{
		index:    index,
		embedder: embedder,
		llm:      client,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(opts.ChunkSize),
			textsplitter.WithChunkOverlap(opts.ChunkOverlap),
		),
		k: opts.K,
	}
}

// Ingest replaces the index with the chunks of the given PDF documents.
func (s *Service) Ingest(ctx context.Context, docs []Document) (IngestResult, error) {
	text, err := ExtractText(ctx, docs)
	if err != nil {
		return IngestResult{}, err
	}

	chunks, err := s.IndexText(ctx, text)
	if err != nil {
		return IngestResult{}, err
	}

	slog.Info("indexed documents", "documents", len(docs), "chunks", chunks)
	return IngestResult{Documents: len(docs), Chunks: chunks}, nil
}

// IndexText splits text into chunks, embeds them and rebuilds the index.
func (s *Service) IndexText(ctx context.Context, text string) (int, error) {
	pieces, err := s.splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("error splitting text: %w", err)
	}

	texts := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) != "" {
			texts = append(texts, piece)
		}
	}
	if len(texts) == 0 {
		return 0, ErrNoText
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("error embedding chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("expected %d embeddings, received %d", len(texts), len(vectors))
	}

	chunks := make([]Chunk, len(texts))
	for i := range texts {
		chunks[i] = Chunk{Text: texts[i], Vector: vectors[i]}
	}

	if err := s.index.Replace(chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	n, err := s.index.Len()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrIndexEmpty
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("error embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("expected 1 embedding, received %d", len(vectors))
	}

	matches, err := s.index.Search(vectors[0], s.k)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		parts = append(parts, strings.TrimSpace(strings.ReplaceAll(match.Text, "\n", " ")))
	}

	prompt := strings.NewReplacer(
		"{context}", strings.Join(parts, " "),
		"{question}", question,
	).Replace(qaPrompt)

	answer, err := s.llm.Generate(ctx, "", prompt)
	if err != nil {
		return "", fmt.Errorf("error answering question: %w", err)
	}

	return FormatAnswer(answer), nil
}

// FormatAnswer flattens the answer onto one line and turns markdown emphasis
// and bullets into the HTML tags the client renders.
func FormatAnswer(answer string) string {
	return strings.NewReplacer("**", "<b>", "*", "<li>").Replace(
		strings.ReplaceAll(strings.ReplaceAll(answer, "\n", " "), "  ", " "),
	)
}
