package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/logging"
)

// ============================================================================
// RESPONSE PARSER — Reduces model output to JSON, then to proposals
// ============================================================================
// Three strategies, tried in order:
//   1. JSON inside the first fenced code block
//   2. the first [ or { bracket-matched to its closing partner
//   3. the whole response
// Bracket matching counts only the opening character and its partner; it
// does not understand strings, so a bracket inside a string value can cut
// the candidate short. The next strategy then gets its turn.
// ============================================================================

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\]|\\{.*?\\})\\s*```")
	fencedCode = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\n(.*?)\\n?```")
)

// seeInterpretation is used when commentary comes back as plain prose.
const seeInterpretation = "See interpretation above."

// ExtractJSON returns the JSON document embedded in a model response.
func ExtractJSON(text string) (json.RawMessage, error) {
	// 1. Fenced block
	if m := fencedJSON.FindStringSubmatch(text); m != nil && json.Valid([]byte(m[1])) {
		return json.RawMessage(m[1]), nil
	}

	// 2. Bracket matching
	if sub, ok := balancedSubstring(text); ok && json.Valid([]byte(sub)) {
		return json.RawMessage(sub), nil
	}

	// 3. Whole response
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	return nil, fmt.Errorf("%w: could not extract valid JSON from response %q", ErrParse, preview(text, 200))
}

// balancedSubstring finds the first [ or { and returns the text up to the
// point where that bracket's depth returns to zero.
func balancedSubstring(text string) (string, bool) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", false
	}
	open := text[start]
	closer := byte(']')
	if open == '{' {
		closer = '}'
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ============================================================================
// PROPOSALS
// ============================================================================

// ParseProposals extracts proposal records from a response. It accepts a
// JSON array, an object with a "proposals" array, or a single record.
// Records failing validation are dropped and logged; the call fails only
// when no record survives. Records without an id get their 1-based position.
func ParseProposals(text string, validator *ProposalValidator) ([]engine.Proposal, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	records, err := splitRecords(raw)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: response holds no proposals", engine.ErrValidation)
	}

	proposals := make([]engine.Proposal, 0, len(records))
	var errs []error
	for i, rec := range records {
		p, err := decodeRecord(rec, validator)
		if err != nil {
			logging.Warn().
				Add(logging.Component("parser")).
				Add(logging.Count("record", i+1)).
				Add(logging.Err(err)).
				Msg("dropping invalid proposal record")
			errs = append(errs, fmt.Errorf("record %d: %w", i+1, err))
			continue
		}
		if p.ID == 0 {
			p.ID = i + 1
		}
		proposals = append(proposals, p)
	}

	if len(proposals) == 0 {
		return nil, fmt.Errorf("no valid proposals among %d records: %w", len(records), errors.Join(errs...))
	}
	return proposals, nil
}

func splitRecords(raw json.RawMessage) ([]any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v["proposals"].([]any); ok {
			return list, nil
		}
		return []any{v}, nil
	}
	return nil, fmt.Errorf("%w: expected a JSON array or object", ErrParse)
}

func decodeRecord(rec any, validator *ProposalValidator) (engine.Proposal, error) {
	if validator != nil {
		if err := validator.Validate(rec); err != nil {
			return engine.Proposal{}, err
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return engine.Proposal{}, err
	}
	return engine.ParseProposal(data)
}

// ============================================================================
// CODE + COMMENTARY
// ============================================================================

// ExtractCode returns the body of the first fenced code block, or the
// trimmed response when there is none.
func ExtractCode(text string) string {
	if m := fencedCode.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ParseInterpretation reads {"interpretation", "recommendations"} from a
// response. Prose that is not JSON becomes the interpretation itself.
func ParseInterpretation(text string) (Interpretation, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Interpretation{}, ErrEmptyResponse
	}

	var body struct {
		Interpretation  engine.FreeText `json:"interpretation"`
		Recommendations engine.FreeText `json:"recommendations"`
	}
	raw, err := ExtractJSON(trimmed)
	if err != nil || json.Unmarshal(raw, &body) != nil || body.Interpretation == "" {
		return Interpretation{Interpretation: trimmed, Recommendations: seeInterpretation}, nil
	}

	out := Interpretation{
		Interpretation:  string(body.Interpretation),
		Recommendations: string(body.Recommendations),
	}
	if out.Recommendations == "" {
		out.Recommendations = seeInterpretation
	}
	return out, nil
}

// preview shortens s to at most n bytes without splitting a rune.
func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
