package llm

import (
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go: [1,2] done", `[1,2]`},
		{"no json", "no json"},
	}
	for _, tt := range tests {
		if got := ExtractJSON(tt.in); got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageRequest(t *testing.T) {
	req := ImageRequest("gpt-4o", "sys", "read this", []byte{0x89, 'P', 'N', 'G'})
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages", len(req.Messages))
	}
	parts := req.Messages[1].MultiContent
	if len(parts) != 2 || parts[1].Type != openai.ChatMessagePartTypeImageURL {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image url = %q", parts[1].ImageURL.URL)
	}
}

func TestFirstContent_NoChoices(t *testing.T) {
	if _, err := FirstContent(openai.ChatCompletionResponse{}); err == nil {
		t.Error("expected error")
	}
}
