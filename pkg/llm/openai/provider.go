package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"rag-chat-be/pkg/llm"

	openai "github.com/sashabaranov/go-openai"
)

// Provider implements llm.LLMProvider on top of the OpenAI chat completions API.
type Provider struct {
	client       *openai.Client
	defaultModel string
}

// Ensure Provider implements LLMProvider
var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}
	return &Provider{
		client:       openai.NewClient(apiKey),
		defaultModel: defaultModel,
	}
}

// NewProviderWithBaseURL targets an OpenAI-compatible endpoint (proxies, local gateways).
func NewProviderWithBaseURL(apiKey, baseURL, defaultModel string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}
	return &Provider{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
	}
}

func (p *Provider) buildRequest(history []llm.Message, options ...llm.Option) openai.ChatCompletionRequest {
	opts := llm.ApplyOptions(llm.Options{Temperature: 0.7}, options...)

	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := p.defaultModel
	if opts.Model != "" {
		model = opts.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	req := p.buildRequest(history, options...)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewError(llm.KindProvider, fmt.Errorf("empty choices in completion response"))
	}

	return &llm.Result{
		Content:      resp.Choices[0].Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, onDelta func(delta string) error, options ...llm.Option) (*llm.Result, error) {
	req := p.buildRequest(history, options...)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	defer stream.Close()

	result := &llm.Result{Model: req.Model, FinishReason: "stop"}
	var accumulated string

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classify(err)
		}

		if chunk.Usage != nil {
			result.TokensUsed = chunk.Usage.TotalTokens
		}
		if chunk.Model != "" {
			result.Model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			result.FinishReason = string(choice.FinishReason)
		}
		if choice.Delta.Content != "" {
			accumulated += choice.Delta.Content
			if err := onDelta(choice.Delta.Content); err != nil {
				return nil, fmt.Errorf("deliver delta: %w", err)
			}
		}
	}

	result.Content = accumulated
	return result, nil
}

// classify maps OpenAI SDK errors to the shared llm error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewError(llm.KindTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return llm.NewError(llm.KindAuth, err)
		case http.StatusTooManyRequests:
			return llm.NewError(llm.KindRateLimit, err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return llm.NewError(llm.KindTimeout, err)
		}
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return llm.NewError(llm.KindTimeout, err)
	}

	return llm.NewError(llm.KindProvider, err)
}
