package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
)

// Anthropic is a dialogue.LLMProvider backed by the Messages API, plain
// mode only (Anthropic's tool-use schema differs enough from OpenAI's that
// function-calling is left to the OpenAI adapter — a session configured
// for function-calling should select that provider). Adapted from the
// teacher's pkg/providers/llm/anthropic.go.
type Anthropic struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewAnthropic builds an Anthropic LLM adapter. model defaults to
// "claude-3-5-sonnet-20240620".
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &Anthropic{apiKey: apiKey, url: "https://api.anthropic.com/v1/messages", model: model, client: http.DefaultClient}
}

func (a *Anthropic) Complete(ctx context.Context, messages []dialogue.Message, _ []dialogue.FunctionSchema) (dialogue.Reply, error) {
	var system string
	var wireMessages []map[string]string
	for _, m := range messages {
		if m.Role == dialogue.RoleSystem {
			system = m.Content
			continue
		}
		wireMessages = append(wireMessages, map[string]string{"role": string(m.Role), "content": m.Content})
	}

	payload := map[string]interface{}{
		"model":      a.model,
		"messages":   wireMessages,
		"max_tokens": 1024,
	}
	if system != "" {
		payload["system"] = system
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dialogue.Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return dialogue.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return dialogue.Reply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return dialogue.Reply{}, fmt.Errorf("anthropic llm error (status %d): %v", resp.StatusCode, errBody)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return dialogue.Reply{}, err
	}
	if len(result.Content) == 0 {
		return dialogue.Reply{}, fmt.Errorf("no content returned from anthropic")
	}
	return dialogue.Reply{Text: result.Content[0].Text}, nil
}

func (a *Anthropic) Name() string { return "anthropic-llm" }
