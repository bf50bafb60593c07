package dialogue

import "context"

// FunctionSchema describes one callable the LLM may invoke in
// function-calling mode (spec.md §4.5 step 3). Parameters is a JSON Schema
// object, kept opaque here since only the provider adapter interprets it.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// FunctionCall is what a LLMProvider returns instead of text when the model
// chooses to invoke a function.
type FunctionCall struct {
	Name string
	Args map[string]interface{}
}

// Reply is one LLMProvider.Complete result: either streamed text or a
// function call, never both.
type Reply struct {
	Text string
	Call *FunctionCall
}

// LLMProvider is the narrow interface the Dialogue Engine calls against; a
// real implementation talks to a remote chat-completion API (spec.md §1:
// "the core only calls chat(messages) -> text"). Functions is nil in plain
// mode.
type LLMProvider interface {
	Complete(ctx context.Context, messages []Message, functions []FunctionSchema) (Reply, error)
	Name() string
}

// FunctionExecutor runs one claimed function call and returns its textual
// result to be spoken, per spec.md §4.5 step 3 ("executed by the plugin
// registry; its textual result is then spoken").
type FunctionExecutor interface {
	Execute(ctx context.Context, call FunctionCall) (string, error)
}
