package ai

import "strings"

// EstimateTokens gives a rough token count for English text, about 1.33
// tokens per word. It is only used for logging prompt sizes.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*1.33), 1)
}
