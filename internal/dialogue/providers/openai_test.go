package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
)

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "hello from openai"}},
			},
		})
	}))
	defer server.Close()

	o := &OpenAI{apiKey: "test-key", url: server.URL, model: "gpt-4o-mini", client: server.Client()}
	reply, err := o.Complete(context.Background(), []dialogue.Message{{Role: dialogue.RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != "hello from openai" {
		t.Fatalf("expected reply text, got %q", reply.Text)
	}
	if o.Name() != "openai-llm" {
		t.Fatalf("expected openai-llm, got %s", o.Name())
	}
}

func TestOpenAICompleteReturnsFunctionCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{
					"tool_calls": []map[string]interface{}{
						{"function": map[string]interface{}{"name": "get_weather", "arguments": `{"city":"Lima"}`}},
					},
				}},
			},
		})
	}))
	defer server.Close()

	o := &OpenAI{apiKey: "test-key", url: server.URL, model: "gpt-4o-mini", client: server.Client()}
	functions := []dialogue.FunctionSchema{{Name: "get_weather", Description: "look up weather"}}
	reply, err := o.Complete(context.Background(), []dialogue.Message{{Role: dialogue.RoleUser, Content: "weather?"}}, functions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Call == nil || reply.Call.Name != "get_weather" {
		t.Fatalf("expected a function call reply, got %+v", reply)
	}
	if reply.Call.Args["city"] != "Lima" {
		t.Fatalf("expected parsed argument city=Lima, got %v", reply.Call.Args)
	}
}
