package openaiLLM

import (
	"context"
	"iter"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/customHttpClient"
	"github.com/akolanti/NotesRAG/internal/rag/llm"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
	logger    *logger_i.Logger
}

// NewClient builds the OpenAI provider, selected over Gemini via config.
func NewClient(apikey string, modelName string) llm.Provider {
	c := openai.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.PooledClient()),
	)
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created")
	return &llmClient{client: c, modelName: modelName, logger: logger}
}

func (c *llmClient) Complete(ctx context.Context, system string, prompt string) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	resp, err := c.client.Chat.Completions.New(ctx, c.params(system, prompt))
	if err != nil {
		log.Error("OpenAI completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		log.Error("OpenAI completion returned no choices")
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *llmClient) Stream(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	return func(yield func(string, error) bool) {
		stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(system, prompt))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			fragment := chunk.Choices[0].Delta.Content
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			log.Error("OpenAI stream failed", "error", err)
			yield("", err)
		}
	}
}

func (c *llmClient) params(system string, prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(config.ModelTemperature)),
	}
}
