package llm

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rehearse_llm_requests_total",
		Help: "Number of calls made to the language model, by provider, operation and outcome.",
	}, []string{"provider", "operation", "outcome"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rehearse_llm_request_duration_seconds",
		Help:    "Latency of calls made to the language model.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"provider", "operation"})
)

// Instrumented bounds every call with a timeout and records call metrics.
type Instrumented struct {
	provider string
	client   Client
	timeout  time.Duration
}

func NewInstrumented(provider string, client Client, timeout time.Duration) *Instrumented {
	return &Instrumented{provider: provider, client: client, timeout: timeout}
}

func (i *Instrumented) observe(ctx context.Context, operation string, call func(context.Context) (string, error)) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := call(ctx)
	llmLatency.WithLabelValues(i.provider, operation).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else if text == "" {
		outcome = "empty"
	}
	llmRequests.WithLabelValues(i.provider, operation, outcome).Inc()

	return text, err
}

func (i *Instrumented) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return i.observe(ctx, "generate", func(ctx context.Context) (string, error) {
		return i.client.Generate(ctx, systemPrompt, prompt)
	})
}

func (i *Instrumented) Chat(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	return i.observe(ctx, "chat", func(ctx context.Context) (string, error) {
		return i.client.Chat(ctx, systemPrompt, turns)
	})
}

type instrumentedEmbedder struct {
	provider string
	embedder Embedder
	timeout  time.Duration
}

func NewInstrumentedEmbedder(provider string, embedder Embedder, timeout time.Duration) Embedder {
	return &instrumentedEmbedder{provider: provider, embedder: embedder, timeout: timeout}
}

func (i *instrumentedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	vectors, err := i.embedder.EmbedTexts(ctx, texts)
	llmLatency.WithLabelValues(i.provider, "embed").Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmRequests.WithLabelValues(i.provider, "embed", outcome).Inc()

	return vectors, err
}
