package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/mj1618/desktop-extract/internal/model"
)

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []Candidate
	}{
		{
			name:  "wrapped",
			reply: `{"candidates": [{"label": "Recipe X", "x": 120, "y": 340, "confidence": 0.9}]}`,
			want:  []Candidate{{Label: "Recipe X", X: 120, Y: 340, Confidence: 0.9}},
		},
		{
			name:  "bare array in fence",
			reply: "```json\n[{\"label\": \"A\", \"x\": 1, \"y\": 2, \"confidence\": 0.4}]\n```",
			want:  []Candidate{{Label: "A", X: 1, Y: 2, Confidence: 0.4}},
		},
		{
			name:  "none",
			reply: `{"candidates": []}`,
			want:  []Candidate{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidates(tt.reply)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
	if _, err := ParseCandidates("I could not find it"); err == nil {
		t.Error("expected error for prose reply")
	}
}

func TestBest(t *testing.T) {
	cands := []Candidate{
		{Label: "Recipe Y", Confidence: 0.7},
		{Label: "Recipe X", Confidence: 0.7},
		{Label: "Noise", Confidence: 0.2},
	}
	got, ok := Best(cands, "recipe x", 0.5)
	if !ok || got.Label != "Recipe X" {
		t.Errorf("Best = %+v, %v", got, ok)
	}
	if _, ok := Best(cands, "x", 0.8); ok {
		t.Error("nothing should pass 0.8")
	}
}

func TestToScreen_Retina(t *testing.T) {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1600, 1200)))
	x, y, err := ToScreen(Candidate{X: 400, Y: 600}, model.Bounds{X: 100, Y: 50, Width: 800, Height: 600}, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if x != 300 || y != 350 {
		t.Errorf("ToScreen = (%d, %d), want (300, 350)", x, y)
	}
}

type cannedChat struct {
	reply string
	err   error
}

func (c *cannedChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: c.reply}}}}, nil
}

func TestOpenAILocator(t *testing.T) {
	l := NewOpenAILocator(&cannedChat{reply: `{"candidates":[{"label":"Home","x":5,"y":6,"confidence":1}]}`}, "")
	got, err := l.Locate(context.Background(), nil, "Home")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Label != "Home" {
		t.Errorf("got %+v", got)
	}

	l = NewOpenAILocator(&cannedChat{err: errors.New("rate limited")}, "")
	if _, err := l.Locate(context.Background(), nil, "Home"); err == nil {
		t.Error("expected error")
	}
}

type cannedGemini struct {
	text     string
	gotModel string
}

func (g *cannedGemini) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.gotModel = model
	if len(contents) != 1 || len(contents[0].Parts) != 2 || contents[0].Parts[0].InlineData == nil {
		return nil, errors.New("unexpected request shape")
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: g.text}}}}},
	}, nil
}

func TestGeminiLocator(t *testing.T) {
	g := &cannedGemini{text: `{"candidates":[{"label":"Row 2","x":10,"y":20,"confidence":0.8}]}`}
	got, err := NewGeminiLocatorWith(g, "").Locate(context.Background(), []byte("png"), "Row 2")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Candidate{{Label: "Row 2", X: 10, Y: 20, Confidence: 0.8}}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if g.gotModel != defaultGeminiModel {
		t.Errorf("model = %q", g.gotModel)
	}
}
