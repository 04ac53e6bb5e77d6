package ai

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

// completer is the one call this package makes against the model.
type completer interface {
	complete(ctx context.Context, systemMessage, userMessage string) (string, error)
}

// Client wraps Azure OpenAI. A Client built without credentials is disabled
// and every report falls back to raw data.
type Client struct {
	llm completer
	log *zap.Logger
}

// New returns a disabled client when endpoint or apiKey is empty.
func New(endpoint, apiKey, deployment string, log *zap.Logger) *Client {
	log = log.Named("ai")
	if endpoint == "" || apiKey == "" {
		log.Info("AI service disabled - Azure OpenAI credentials not provided",
			zap.Strings("required", []string{"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY"}))
		return &Client{log: log}
	}

	client := openai.NewClient(
		option.WithBaseURL(endpoint),
		option.WithAPIKey(apiKey),
	)
	log.Info("AI service initialized with Azure OpenAI", zap.String("deployment", deployment))
	return &Client{llm: &chatCompleter{client: &client, deployment: deployment}, log: log}
}

func (c *Client) Enabled() bool {
	return c != nil && c.llm != nil
}

func (c *Client) generateCompletion(ctx context.Context, systemMessage, userMessage string) (string, error) {
	if !c.Enabled() {
		return "", &AIError{Message: "AI service is not enabled"}
	}
	return c.llm.complete(ctx, systemMessage, userMessage)
}

type chatCompleter struct {
	client     *openai.Client
	deployment string
}

func (c *chatCompleter) complete(ctx context.Context, systemMessage, userMessage string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.deployment),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemMessage),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userMessage),
					},
				},
			},
		},
		MaxTokens:   openai.Int(600),
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return "", &AIError{Message: "Failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{Message: "AI returned empty response"}
	}

	return resp.Choices[0].Message.Content, nil
}

// AIError represents an AI service error
type AIError struct {
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error {
	return e.Cause
}
