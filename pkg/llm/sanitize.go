package llm

import "strings"

// sanitizeInput removes or escapes potential prompt injection patterns from
// user input before it reaches a model.
func sanitizeInput(input string) string {
	sanitized := input

	// Remove role indicators that could confuse the model
	for _, marker := range []string{
		"SYSTEM:", "System:", "system:",
		"ASSISTANT:", "Assistant:", "assistant:",
		"USER:", "User:", "user:",
	} {
		sanitized = strings.ReplaceAll(sanitized, marker, "")
	}

	// Remove instruction override attempts
	for _, marker := range []string{
		"Ignore previous instructions", "ignore previous instructions",
		"Ignore all previous", "ignore all previous",
		"Disregard previous", "disregard previous",
	} {
		sanitized = strings.ReplaceAll(sanitized, marker, "")
	}

	// Remove delimiter attacks and code fences
	sanitized = strings.ReplaceAll(sanitized, "---", "")
	sanitized = strings.ReplaceAll(sanitized, "===", "")
	sanitized = strings.ReplaceAll(sanitized, "***", "")
	sanitized = strings.ReplaceAll(sanitized, "```", "")

	return strings.TrimSpace(sanitized)
}

// SanitizePrompt is the exported form used by callers that build their own
// message sets.
func SanitizePrompt(input string) string {
	return sanitizeInput(input)
}
