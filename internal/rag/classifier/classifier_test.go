package classifier

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
)

type mockProvider struct {
	OnComplete func(ctx context.Context, system string, prompt string) (string, error)
	Calls      int
}

func (m *mockProvider) Complete(ctx context.Context, system string, prompt string) (string, error) {
	m.Calls++
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, prompt)
	}
	return `{"use_documents": false, "reasoning": "default"}`, nil
}

func (m *mockProvider) Stream(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		modelOutput   string
		modelErr      error
		wantUseCorpus bool
		wantErr       bool
	}{
		{
			name:          "Routes_To_Documents",
			modelOutput:   `{"use_documents": true, "reasoning": "asks about uploaded notes"}`,
			wantUseCorpus: true,
		},
		{
			name:          "Routes_To_General_Knowledge",
			modelOutput:   `{"use_documents": false, "reasoning": "world trivia"}`,
			wantUseCorpus: false,
		},
		{
			name:        "Model_Call_Fails",
			modelErr:    errors.New("provider down"),
			wantErr:     true,
		},
		{
			name:        "Unparseable_Output",
			modelOutput: "I would say the documents are relevant here.",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{
				OnComplete: func(ctx context.Context, system string, prompt string) (string, error) {
					return tt.modelOutput, tt.modelErr
				},
			}
			c := New(provider)

			decision, err := c.Classify(context.Background(), "test question", AvailableContext{})

			if provider.Calls != 1 {
				t.Errorf("Classify must issue exactly one model call, got %d", provider.Calls)
			}

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", decision)
				}
				if !errors.Is(err, ragModel.ErrMalformedModelOutput) {
					t.Errorf("error should wrap ErrMalformedModelOutput, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if decision.UseCorpus != tt.wantUseCorpus {
				t.Errorf("UseCorpus got %v, want %v", decision.UseCorpus, tt.wantUseCorpus)
			}
		})
	}
}

func TestBuildPrompt_DigestsAvailableContext(t *testing.T) {
	available := AvailableContext{
		Documents: []docModel.DocumentSummary{
			{DocumentId: "d1", Name: "biology.pdf", ShortSummary: "Notes on photosynthesis", VectorStatus: docModel.VectorCompleted},
			{DocumentId: "d2", Name: "draft.txt", VectorStatus: docModel.VectorPending},
		},
		PrimaryHasInline: true,
	}

	prompt := buildPrompt("what do my notes say about chlorophyll?", available)

	for _, want := range []string{"biology.pdf", "Notes on photosynthesis", "completed", "draft.txt", "pending", "yes", "chlorophyll"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_NoDocuments(t *testing.T) {
	prompt := buildPrompt("hello", AvailableContext{})
	if !strings.Contains(prompt, "no documents attached") {
		t.Errorf("prompt should state there are no documents:\n%s", prompt)
	}
}
