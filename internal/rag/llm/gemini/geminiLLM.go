package gemini

import (
	"context"
	"iter"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/rag/llm"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
	logger    *logger_i.Logger
}

// NewClient builds the Gemini provider injected at startup.
func NewClient(ctx context.Context, apikey string, modelName string) (llm.Provider, error) {
	logger := logger_i.NewLogger("llm_gemini")

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return nil, err
	}

	logger.Debug("Gemini client created", "model", modelName)
	logger.Info("Gemini client created")
	return &llmClient{client: c, modelName: modelName, logger: logger}, nil
}

func (c *llmClient) Complete(ctx context.Context, system string, prompt string) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(prompt),
		c.contentConfig(system),
	)
	if err != nil {
		log.Error("Gemini generate failed", "error", err)
		return "", err
	}
	return result.Text(), nil
}

// Stream forwards each response delta the moment it arrives. The sequence
// ends on the first backend error; stopping the iteration early is the
// consumer's cancellation path.
func (c *llmClient) Stream(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	return func(yield func(string, error) bool) {
		for resp, err := range c.client.Models.GenerateContentStream(
			ctx,
			c.modelName,
			genai.Text(prompt),
			c.contentConfig(system),
		) {
			if err != nil {
				log.Error("Gemini stream failed", "error", err)
				yield("", err)
				return
			}
			fragment := resp.Text()
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

func (c *llmClient) contentConfig(system string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature: genai.Ptr[float32](config.ModelTemperature),
	}
}
