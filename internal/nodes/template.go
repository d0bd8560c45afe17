package nodes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// jsonOnlyInstruction is appended to prompts sent to chat-only models when
// structured output is requested.
const jsonOnlyInstruction = "\n\nReturn ONLY valid JSON that matches the expected structure. Do not include markdown or extra text."

// renderPrompt produces the final prompt for an ai node: single-pass
// {{key}} substitution from the upstream output (when it is an object),
// with a serialized dump of the upstream output prepended as context.
// Deliberately not a template engine — one pass, no nesting, no expressions.
func renderPrompt(prompt string, input any) string {
	rendered := substitutePlaceholders(prompt, input)
	if input == nil {
		return rendered
	}
	dump, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		dump = []byte(fmt.Sprintf("%v", input))
	}
	return "Context from previous step:\n" + string(dump) + "\n\n" + rendered
}

func substitutePlaceholders(prompt string, input any) string {
	fields, ok := input.(map[string]any)
	if !ok {
		return prompt
	}
	for key, val := range fields {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", fmt.Sprintf("%v", val))
	}
	return prompt
}
