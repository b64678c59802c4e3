package intent

import (
	"regexp"
)

// namePatterns match the common ways users reference a character by name.
// Names are expected to be capitalized single words.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:character|person|npc)(?:\s+named|\s+called)?\s+([A-Z][a-z]+)`), // "character named Malak"
	regexp.MustCompile(`(?:about|on|regarding)\s+([A-Z][a-z]+)`),                          // "about Malak"
	regexp.MustCompile(`(?:what|who|tell me about)\s+(?:is|about)?\s+([A-Z][a-z]+)`),      // "what is Malak"
	regexp.MustCompile(`([A-Z][a-z]+)(?:'s|\s+is|\s+was|\s+has)`),                         // "Malak's" or "Malak is"
}

// ExtractNames pulls candidate character names from a message, deduplicated
// in first-seen order. An empty result means the lookup tools fall back to
// listing the project roster.
func ExtractNames(message string) []string {
	var names []string
	seen := map[string]bool{}

	for _, pattern := range namePatterns {
		for _, match := range pattern.FindAllStringSubmatch(message, -1) {
			name := match[1]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	return names
}
