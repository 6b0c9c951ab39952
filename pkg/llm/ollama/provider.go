package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rag-chat-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model      string        `json:"model"`
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
	// Token accounting reported on the final chunk
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

func (o *OllamaProvider) buildRequest(history []llm.Message, stream bool, options ...llm.Option) *ollamaChatRequest {
	opts := llm.ApplyOptions(llm.Options{Temperature: 0.7}, options...)

	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		ollamaMessages[i] = ollamaMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := o.ModelName
	if opts.Model != "" {
		model = opts.Model
	}

	req := &ollamaChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Stream:   stream,
		Options: &ollamaOptions{
			Temperature: opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		req.Options.NumPredict = opts.MaxTokens
	}
	return req
}

func (o *OllamaProvider) send(ctx context.Context, payload *ollamaChatRequest) (*http.Response, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, llm.NewError(llm.KindTimeout, err)
		}
		return nil, llm.NewError(llm.KindProvider, fmt.Errorf("ollama request failed: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		err := fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, llm.NewError(llm.KindRateLimit, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, llm.NewError(llm.KindAuth, err)
		default:
			return nil, llm.NewError(llm.KindProvider, err)
		}
	}

	return resp, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	payload := o.buildRequest(history, false, options...)

	resp, err := o.send(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, llm.NewError(llm.KindProvider, fmt.Errorf("decode response: %w", err))
	}

	return &llm.Result{
		Content:      chatResp.Message.Content,
		TokensUsed:   chatResp.PromptEvalCount + chatResp.EvalCount,
		Model:        chatResp.Model,
		FinishReason: finishReason(chatResp.DoneReason),
	}, nil
}

// ChatStream reads Ollama's newline-delimited JSON chunks and forwards each
// message delta until the "done" chunk arrives.
func (o *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta func(delta string) error, options ...llm.Option) (*llm.Result, error) {
	payload := o.buildRequest(history, true, options...)

	resp, err := o.send(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &llm.Result{Model: payload.Model, FinishReason: "stop"}
	var accumulated string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, llm.NewError(llm.KindProvider, fmt.Errorf("decode stream chunk: %w", err))
		}

		if chunk.Message.Content != "" {
			accumulated += chunk.Message.Content
			if err := onDelta(chunk.Message.Content); err != nil {
				return nil, fmt.Errorf("deliver delta: %w", err)
			}
		}

		if chunk.Done {
			result.Model = chunk.Model
			result.TokensUsed = chunk.PromptEvalCount + chunk.EvalCount
			result.FinishReason = finishReason(chunk.DoneReason)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, llm.NewError(llm.KindTimeout, err)
		}
		return nil, llm.NewError(llm.KindProvider, fmt.Errorf("read stream: %w", err))
	}

	result.Content = accumulated
	return result, nil
}

func finishReason(doneReason string) string {
	switch doneReason {
	case "", "stop":
		return "stop"
	case "length":
		return "length"
	default:
		return doneReason
	}
}
