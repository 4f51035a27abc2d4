package oracle

import "strings"

// Reasoning-style models reject the temperature parameter outright; newer
// chat models keep temperature but renamed the token-limit field. Both
// predicates key on substring match against the model identifier.

// SupportsTemperature reports whether the model accepts a temperature
// parameter. Models containing "o1" or "o3" do not.
func SupportsTemperature(model string) bool {
	return !strings.Contains(model, "o1") && !strings.Contains(model, "o3")
}

// UsesCompletionTokensField reports whether the model requires
// max_completion_tokens instead of max_tokens. True for o1/o3 and for
// gpt-4o / gpt-4.5 families.
func UsesCompletionTokensField(model string) bool {
	if strings.Contains(model, "o1") || strings.Contains(model, "o3") {
		return true
	}
	return strings.Contains(model, "gpt-4o") || strings.Contains(model, "gpt-4.5")
}
