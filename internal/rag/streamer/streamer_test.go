package streamer

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
)

type mockProvider struct {
	OnStream   func(ctx context.Context, system string, prompt string) iter.Seq2[string, error]
	LastSystem string
	LastPrompt string
}

func (m *mockProvider) Complete(ctx context.Context, system string, prompt string) (string, error) {
	return "", nil
}

func (m *mockProvider) Stream(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
	m.LastSystem = system
	m.LastPrompt = prompt
	if m.OnStream != nil {
		return m.OnStream(ctx, system, prompt)
	}
	return fragments("answer")
}

func fragments(parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func collect(events <-chan ragModel.StreamEvent) []ragModel.StreamEvent {
	var out []ragModel.StreamEvent
	for e := range events {
		out = append(out, e)
	}
	return out
}

func TestStream_FragmentsAccumulateIntoFullAnswer(t *testing.T) {
	provider := &mockProvider{
		OnStream: func(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
			return fragments("Photosynthesis ", "converts light ", "into energy.")
		},
	}
	s := New(provider)

	events := collect(s.Stream(context.Background(), "how does it work?", ragModel.PipelineRAG, ragModel.RetrievedContext{
		Passages: []ragModel.Passage{{ChunkID: "c1", Text: "Photosynthesis converts light into chemical energy."}},
	}))

	if len(events) != 4 {
		t.Fatalf("expected 3 fragments + terminal event, got %d events", len(events))
	}

	var concat strings.Builder
	for _, e := range events[:3] {
		if e.Done {
			t.Fatal("terminal event arrived before the last fragment")
		}
		concat.WriteString(e.Fragment)
	}

	terminal := events[3]
	if !terminal.Done || !terminal.Success {
		t.Errorf("terminal event got %+v, want Done and Success", terminal)
	}
	if terminal.Answer != concat.String() {
		t.Errorf("full answer %q must equal concatenated fragments %q", terminal.Answer, concat.String())
	}
	if terminal.PipelineUsed != ragModel.PipelineRAG {
		t.Errorf("PipelineUsed got %s, want rag", terminal.PipelineUsed)
	}
}

func TestStream_MidStreamFailureKeepsDeliveredFragments(t *testing.T) {
	provider := &mockProvider{
		OnStream: func(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				if !yield("partial ", nil) {
					return
				}
				yield("", errors.New("connection reset"))
			}
		},
	}
	s := New(provider)

	events := collect(s.Stream(context.Background(), "q", ragModel.PipelineExternal, ragModel.RetrievedContext{}))

	if len(events) != 2 {
		t.Fatalf("expected 1 fragment + terminal event, got %d", len(events))
	}
	if events[0].Fragment != "partial " {
		t.Errorf("delivered fragment is not retracted, got %q", events[0].Fragment)
	}

	terminal := events[1]
	if !terminal.Done || terminal.Success {
		t.Errorf("terminal event got %+v, want Done with Success=false", terminal)
	}
	if terminal.Answer != "partial " {
		t.Errorf("terminal answer should hold the partial text, got %q", terminal.Answer)
	}
	if !errors.Is(terminal.Err, ragModel.ErrGenerationInterrupted) {
		t.Errorf("terminal error should wrap ErrGenerationInterrupted, got %v", terminal.Err)
	}
}

func TestStream_CancellationStopsWithoutTerminalEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &mockProvider{
		OnStream: func(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				if !yield("first", nil) {
					return
				}
				//the consumer cancels after the first fragment; this send
				//must hit the ctx.Done branch, not block forever
				yield("second", nil)
			}
		},
	}
	s := New(provider)

	events := s.Stream(ctx, "q", ragModel.PipelineExternal, ragModel.RetrievedContext{})

	first := <-events
	if first.Fragment != "first" {
		t.Fatalf("unexpected first event %+v", first)
	}
	cancel()

	//the channel must close without a terminal event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Done {
				t.Errorf("no terminal event expected after cancellation, got %+v", e)
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestBuildPrompt_Modes(t *testing.T) {
	t.Run("External_Ignores_Passages", func(t *testing.T) {
		system, prompt := buildPrompt("capital of France?", ragModel.PipelineExternal, ragModel.RetrievedContext{
			Passages: []ragModel.Passage{{Text: "should not appear"}},
		})
		if strings.Contains(prompt, "should not appear") {
			t.Error("external prompt must not include passages")
		}
		if !strings.Contains(system, "general knowledge") {
			t.Errorf("external system instruction unexpected: %s", system)
		}
	})

	t.Run("RAG_Includes_Passages", func(t *testing.T) {
		_, prompt := buildPrompt("q", ragModel.PipelineRAG, ragModel.RetrievedContext{
			Passages: []ragModel.Passage{{Text: "chlorophyll absorbs light"}},
		})
		if !strings.Contains(prompt, "chlorophyll absorbs light") {
			t.Errorf("rag prompt missing passage text: %s", prompt)
		}
	})

	t.Run("RAG_Empty_Context_Is_Stated", func(t *testing.T) {
		_, prompt := buildPrompt("q", ragModel.PipelineRAG, ragModel.RetrievedContext{})
		if !strings.Contains(prompt, "No passages were retrieved") {
			t.Errorf("empty-context prompt must say so: %s", prompt)
		}
	})
}
