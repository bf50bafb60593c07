package dialogue

import "testing"

func TestHistoryMessagesPutsSystemPromptFirst(t *testing.T) {
	h := NewHistory(5)
	h.SetSystemPrompt("you are helpful")
	h.Append(RoleUser, "hi")

	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "you are helpful" {
		t.Fatalf("expected system prompt first, got %+v", msgs[0])
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "hi" {
		t.Fatalf("expected the user turn second, got %+v", msgs[1])
	}
}

func TestHistoryEvictsOldestTurnBeyondMaxTurns(t *testing.T) {
	h := NewHistory(2)
	h.Append(RoleUser, "one")
	h.Append(RoleAssistant, "two")
	h.Append(RoleUser, "three")

	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected exactly 2 turns retained, got %d", len(msgs))
	}
	if msgs[0].Content != "two" || msgs[1].Content != "three" {
		t.Fatalf("expected the oldest turn evicted, got %+v", msgs)
	}
}

func TestHistoryDefaultsMaxTurnsWhenNonPositive(t *testing.T) {
	h := NewHistory(0)
	if h.maxTurns != DefaultMaxTurns {
		t.Fatalf("expected default max turns %d, got %d", DefaultMaxTurns, h.maxTurns)
	}
}

func TestHistoryClearPreservesSystemPrompt(t *testing.T) {
	h := NewHistory(5)
	h.SetSystemPrompt("you are helpful")
	h.Append(RoleUser, "hi")
	h.Clear()

	msgs := h.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleSystem {
		t.Fatalf("expected only the system prompt to survive Clear, got %+v", msgs)
	}
}

func TestHistorySetSystemPromptMidConversationReplacesPrompt(t *testing.T) {
	h := NewHistory(5)
	h.SetSystemPrompt("first prompt")
	h.Append(RoleUser, "hi")
	h.SetSystemPrompt("second prompt")

	msgs := h.Messages()
	if msgs[0].Content != "second prompt" {
		t.Fatalf("expected the replaced system prompt, got %q", msgs[0].Content)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected prior turns to survive a system prompt swap, got %d messages", len(msgs))
	}
}
