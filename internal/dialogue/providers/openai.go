// Package providers holds LLMProvider adapters: thin REST clients behind
// the external collaborator boundary spec.md §1 draws ("the core only
// calls chat(messages) -> text").
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
)

// OpenAI is a dialogue.LLMProvider backed by the chat completions API, with
// function-calling support via OpenAI's native "tools" schema (spec.md
// §4.5 step 3's function-calling mode). Adapted from the teacher's
// pkg/providers/llm/openai.go, extended with tool-call translation since
// the teacher's version predates that mode.
type OpenAI struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewOpenAI builds an OpenAI LLM adapter. model defaults to "gpt-4o-mini".
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{apiKey: apiKey, url: "https://api.openai.com/v1/chat/completions", model: model, client: http.DefaultClient}
}

type openAITool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description,omitempty"`
		Parameters  map[string]interface{} `json:"parameters,omitempty"`
	} `json:"function"`
}

func (o *OpenAI) Complete(ctx context.Context, messages []dialogue.Message, functions []dialogue.FunctionSchema) (dialogue.Reply, error) {
	wireMessages := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		wireMessages = append(wireMessages, map[string]string{"role": string(m.Role), "content": m.Content})
	}

	payload := map[string]interface{}{
		"model":    o.model,
		"messages": wireMessages,
	}
	if len(functions) > 0 {
		tools := make([]openAITool, 0, len(functions))
		for _, f := range functions {
			var t openAITool
			t.Type = "function"
			t.Function.Name = f.Name
			t.Function.Description = f.Description
			t.Function.Parameters = f.Parameters
			tools = append(tools, t)
		}
		payload["tools"] = tools
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dialogue.Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return dialogue.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return dialogue.Reply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return dialogue.Reply{}, fmt.Errorf("openai llm error (status %d): %v", resp.StatusCode, errBody)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return dialogue.Reply{}, err
	}
	if len(result.Choices) == 0 {
		return dialogue.Reply{}, fmt.Errorf("no choices returned from openai")
	}

	choice := result.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		call := choice.ToolCalls[0]
		var args map[string]interface{}
		json.Unmarshal([]byte(call.Function.Arguments), &args)
		return dialogue.Reply{Call: &dialogue.FunctionCall{Name: call.Function.Name, Args: args}}, nil
	}
	return dialogue.Reply{Text: choice.Content}, nil
}

func (o *OpenAI) Name() string { return "openai-llm" }
