package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rehearse-backend/internal/database"
	"rehearse-backend/internal/llm"
	"rehearse-backend/internal/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var feedbackGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rehearse_feedback_generated_total",
	Help: "Feedback texts produced for closed conversations, by outcome.",
}, []string{"outcome"})

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

type FeedbackOptions struct {
	Profile Profile

	// Translate runs overall and per message feedback through the translator.
	Translate bool

	// MaxPointsPerCategory keeps at most this many lines under each of the
	// Positives and Needs Improvement headings of the overall feedback. Zero
	// keeps everything.
	MaxPointsPerCategory int

	LogResourceUsage bool

	// Concurrency bounds the number of per message critiques in flight.
	Concurrency int
}

type Report struct {
	Content string
	Overall string
	Items   []database.FeedbackItem
}

type FeedbackGenerator interface {
	Generate(ctx context.Context, messages []database.Message) (Report, error)
}

type Generator struct {
	llm        llm.Client
	translator Translator
	opts       FeedbackOptions
}

func NewGenerator(client llm.Client, translator Translator, opts FeedbackOptions) *Generator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Generator{llm: client, translator: translator, opts: opts}
}

func speakerLabel(sender string) string {
	if sender == database.SenderCustomer {
		return "Customer"
	}
	return "Agent"
}

func (g *Generator) transcript(messages []database.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, speakerLabel(msg.Sender)+": "+msg.Content)
	}

	transcript := strings.Join(lines, "\n")
	if g.opts.Profile.TranscriptTrailingNewline {
		transcript += "\n"
	}
	return transcript
}

func (g *Generator) usage(stage string) {
	if g.opts.LogResourceUsage {
		logResourceUsage(stage)
	}
}

func (g *Generator) translate(ctx context.Context, text string) string {
	if !g.opts.Translate || g.translator == nil {
		return text
	}

	translated, err := g.translator.Translate(ctx, text)
	if err != nil {
		slog.Warn("translation failed, keeping untranslated feedback", "error", err)
		return text
	}
	return translated
}

// generate calls the model. Empty output is replaced by placeholder; a failed
// call is returned as ErrUpstream.
func (g *Generator) generate(ctx context.Context, prompt, placeholder string) (string, error) {
	text, err := g.llm.Generate(ctx, "", prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if strings.TrimSpace(text) == "" {
		feedbackGenerated.WithLabelValues("placeholder").Inc()
		return placeholder, nil
	}
	return text, nil
}

func (g *Generator) overall(ctx context.Context, messages []database.Message) (string, error) {
	profile := g.opts.Profile
	prompt := strings.ReplaceAll(profile.OverallPrompt, "{conversation}", g.transcript(messages))

	g.usage("before overall feedback generation")

	overall, err := g.generate(ctx, prompt, profile.OverallPlaceholder)
	if err != nil {
		return "", err
	}

	g.usage("after overall feedback generation")

	if g.opts.MaxPointsPerCategory > 0 {
		overall = LimitPointsPerCategory(overall, g.opts.MaxPointsPerCategory)
		g.usage("after processing overall feedback")
	}

	if g.opts.Translate {
		overall = g.translate(ctx, overall)
		g.usage("after translating overall feedback")
	}

	if strings.TrimSpace(overall) == "" {
		overall = profile.NoOverallPlaceholder
	}
	return overall, nil
}

func (g *Generator) Generate(ctx context.Context, messages []database.Message) (Report, error) {
	if len(messages) == 0 {
		feedbackGenerated.WithLabelValues("missing_messages").Inc()
		return Report{Content: MissingConversationFeedback}, nil
	}

	profile := g.opts.Profile

	overall, err := g.overall(ctx, messages)
	if err != nil {
		feedbackGenerated.WithLabelValues("error").Inc()
		return Report{}, err
	}

	var agentMessages []database.Message
	for _, msg := range messages {
		if msg.Sender == database.SenderAgent {
			agentMessages = append(agentMessages, msg)
		}
	}

	g.usage("before individual feedback generation")

	items, err := utils.MapInPool(agentMessages, g.opts.Concurrency, func(msg database.Message) (database.FeedbackItem, error) {
		prompt := strings.ReplaceAll(profile.MessagePrompt, "{response}", msg.Content)
		text, err := g.generate(ctx, prompt, profile.MessagePlaceholder)
		if err != nil {
			return database.FeedbackItem{}, err
		}
		return database.FeedbackItem{
			MessageID:    msg.ID,
			AgentMessage: msg.Content,
			Feedback:     g.translate(ctx, text),
		}, nil
	})
	if err != nil {
		feedbackGenerated.WithLabelValues("error").Inc()
		return Report{}, err
	}

	g.usage("after individual feedback generation")

	entries := make([]string, 0, len(items))
	for _, item := range items {
		entries = append(entries, fmt.Sprintf("%s: %s\n%s: %s", profile.ResponseLabel, item.AgentMessage, profile.FeedbackLabel, item.Feedback))
	}

	content := fmt.Sprintf("%s:\n%s\n\n%s:\n", profile.OverallHeader, overall, profile.IndividualHeader) + strings.Join(entries, "\n\n")

	g.usage("after generating combined feedback")
	feedbackGenerated.WithLabelValues("ok").Inc()

	return Report{Content: content, Overall: overall, Items: items}, nil
}

// LimitPointsPerCategory rebuilds feedback as a Positives section followed by a
// Needs Improvement section, each holding at most n of the non-blank lines
// found under the matching heading. Lines before the first heading are dropped.
func LimitPointsPerCategory(feedback string, n int) string {
	var positives, improvements []string
	var current *[]string

	for _, line := range strings.Split(feedback, "\n") {
		switch {
		case strings.Contains(line, "Positives"):
			current = &positives
		case strings.Contains(line, "Needs Improvement"):
			current = &improvements
		case current != nil && strings.TrimSpace(line) != "":
			*current = append(*current, line)
		}
	}

	result := []string{"Positives:"}
	result = append(result, positives[:min(n, len(positives))]...)
	result = append(result, "Needs Improvement:")
	result = append(result, improvements[:min(n, len(improvements))]...)

	return strings.Join(result, "\n")
}
