package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
)

// Google is a dialogue.LLMProvider backed by the Gemini generateContent
// API, plain mode only. Adapted from the teacher's
// pkg/providers/llm/google.go.
type Google struct {
	apiKey string
	url    string
	client *http.Client
}

// NewGoogle builds a Google LLM adapter. model defaults to
// "gemini-1.5-flash".
func NewGoogle(apiKey, model string) *Google {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Google{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		client: http.DefaultClient,
	}
}

type geminiMessage struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func (g *Google) Complete(ctx context.Context, messages []dialogue.Message, _ []dialogue.FunctionSchema) (dialogue.Reply, error) {
	var contents []geminiMessage
	for _, m := range messages {
		role := string(m.Role)
		switch m.Role {
		case dialogue.RoleSystem:
			role = "user" // Gemini doesn't treat "system" uniformly across models.
		case dialogue.RoleAssistant:
			role = "model"
		}
		msg := geminiMessage{Role: role}
		msg.Parts = append(msg.Parts, struct {
			Text string `json:"text"`
		}{Text: m.Content})
		contents = append(contents, msg)
	}

	body, err := json.Marshal(map[string]interface{}{"contents": contents})
	if err != nil {
		return dialogue.Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return dialogue.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return dialogue.Reply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return dialogue.Reply{}, fmt.Errorf("google llm error (status %d): %v", resp.StatusCode, errBody)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return dialogue.Reply{}, err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return dialogue.Reply{}, fmt.Errorf("no response from google llm")
	}
	return dialogue.Reply{Text: result.Candidates[0].Content.Parts[0].Text}, nil
}

func (g *Google) Name() string { return "google-llm" }
