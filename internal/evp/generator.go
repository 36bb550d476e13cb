package evp

import (
	"context"
	"log/slog"

	"github.com/FranksOps/evp/internal/llm"
)

// Generator produces EVP reports through a completion provider.
type Generator struct {
	completer llm.Completer
	model     string
	logger    *slog.Logger
}

// NewGenerator creates a Generator that uses the given model.
func NewGenerator(completer llm.Completer, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, model: model, logger: logger}
}

// Generate issues exactly one completion request, even for an empty context,
// and returns the raw report text. An empty response is not an error.
func (g *Generator) Generate(ctx context.Context, company, compiled string) (string, error) {
	prompt := BuildPrompt(company, compiled)
	g.logger.Debug("requesting evp", "company", company, "model", g.model, "prompt_chars", len(prompt))

	return g.completer.Complete(ctx, llm.Request{
		Model:       g.model,
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: Temperature,
	})
}
