// Package llmutil contains helpers for coping with LLM response text.
package llmutil

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// ParseLoose extracts a JSON value from model output using an ordered list
// of strategies: raw parse, fenced-code-block extraction, then
// first-'{'-to-last-'}' substring extraction. It returns false when none of
// the strategies produce valid JSON; callers decide the fallback (typically
// wrapping the raw text instead of failing the step).
func ParseLoose(text string) (any, bool) {
	for _, extract := range parseStrategies {
		candidate, ok := extract(text)
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, true
		}
	}
	return nil, false
}

var parseStrategies = []func(string) (string, bool){
	rawCandidate,
	fencedCandidate,
	braceSpanCandidate,
}

func rawCandidate(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, trimmed != ""
}

func fencedCandidate(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func braceSpanCandidate(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
