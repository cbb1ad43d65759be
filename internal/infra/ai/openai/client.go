package openai

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/sashabaranov/go-openai"

    domnlq "github.com/bryanwahyu/binwatch/internal/domain/nlq"
    "github.com/bryanwahyu/binwatch/internal/infra/ai/prompt"
)

const maxTokens = 512

type Client struct {
    *openai.Client
    Model string
}

func NewClient(apiKey, model string) *Client {
    return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Answer implementasi nlq.Client
func (c *Client) Answer(ctx context.Context, question, facts string) (string, error) {
    model := c.Model
    if model == "" {
        model = "gpt-4o-mini"
    }
    req := openai.ChatCompletionRequest{
        Model: model,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
            {Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(question, facts)},
        },
    }
    // model reasoning (o1/o3/o4/gpt-5*) pakai MaxCompletionTokens, bukan MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = maxTokens
    } else {
        req.MaxTokens = maxTokens
    }

    resp, err := c.CreateChatCompletion(ctx, req)
    if err != nil {
        var apiErr *openai.APIError
        if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
            return "", domnlq.ErrQuotaExceeded
        }
        return "", fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 {
        return "", fmt.Errorf("empty completion response")
    }
    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
