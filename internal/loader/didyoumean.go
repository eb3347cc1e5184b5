package loader

import (
	"github.com/agext/levenshtein"
)

// nameSuggestion tries to find a name from the given slice of suggested names
// that is close to the given name and returns it if found. If no suggestion
// is close enough, returns the empty string.
func nameSuggestion(given string, suggestions []string) string {
	for _, suggestion := range suggestions {
		dist := levenshtein.Distance(given, suggestion, nil)
		if dist < 3 {
			return suggestion
		}
	}
	return ""
}

// suggestionDetail renders a trailing hint for an unknown-name diagnostic,
// or the empty string when no candidate is close enough.
func suggestionDetail(given string, suggestions []string) string {
	if s := nameSuggestion(given, suggestions); s != "" {
		return " Did you mean " + quoted(s) + "?"
	}
	return ""
}

func quoted(s string) string {
	return `"` + s + `"`
}
