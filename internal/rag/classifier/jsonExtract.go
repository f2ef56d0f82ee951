package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
)

type rawDecision struct {
	UseDocuments bool   `json:"use_documents"`
	Reasoning    string `json:"reasoning"`
}

// ParseDecision probes the model output in three layers: direct parse,
// fenced-block strip, then balanced-brace substring. Each layer is a pure
// function so it can be tested on its own.
func ParseDecision(raw string) (ragModel.ClassificationDecision, error) {
	candidates := []string{
		strings.TrimSpace(raw),
		stripCodeFences(raw),
	}
	if sub, ok := extractBalanced(raw); ok {
		candidates = append(candidates, sub)
	}

	var lastErr error
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var decoded rawDecision
		if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
			lastErr = err
			continue
		}
		return ragModel.ClassificationDecision{
			UseCorpus: decoded.UseDocuments,
			Reasoning: decoded.Reasoning,
		}, nil
	}

	return ragModel.ClassificationDecision{}, fmt.Errorf("%w: %v", ragModel.ErrMalformedModelOutput, lastErr)
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	//drop the language tag line
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// extractBalanced returns the first balanced {...} or [...] substring,
// skipping braces that sit inside JSON string literals.
func extractBalanced(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
