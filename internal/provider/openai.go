package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenAIProvider talks to an OpenAI-compatible chat completions API.
type OpenAIProvider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewOpenAIProvider(name, baseURL, apiKey string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{name: name, baseURL: baseURL, apiKey: apiKey, client: &http.Client{}}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error) {
	body := map[string]any{
		"model": req.Model,
		"messages": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
	}
	if len(req.WebSearchOptions) > 0 {
		body["web_search_options"] = req.WebSearchOptions
	}

	content, usage, err := p.complete(ctx, body)
	if err != nil {
		return nil, err
	}
	return &TextResult{Text: content, Usage: usage}, nil
}

func (p *OpenAIProvider) GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResult, error) {
	name := req.SchemaName
	if name == "" {
		name = "structured_output"
	}
	body := map[string]any{
		"model": req.Model,
		"messages": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"strict": true,
				"schema": req.Validator.JSONSchema(),
			},
		},
	}

	content, usage, err := p.complete(ctx, body)
	if err != nil {
		return nil, err
	}

	var object any
	if err := json.Unmarshal([]byte(content), &object); err != nil {
		return nil, fmt.Errorf("decode structured response: %w", err)
	}
	return &StructuredResult{Object: object, Usage: usage}, nil
}

// complete posts a chat completion request and returns the first choice's
// content plus usage.
func (p *OpenAIProvider) complete(ctx context.Context, body map[string]any) (string, *Usage, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", nil, fmt.Errorf("no choices in response")
	}

	var usage *Usage
	if apiResp.Usage != nil {
		usage = &Usage{
			InputTokens:  apiResp.Usage.PromptTokens,
			OutputTokens: apiResp.Usage.CompletionTokens,
		}
	}
	return apiResp.Choices[0].Message.Content, usage, nil
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
