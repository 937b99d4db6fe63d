package prompt

// defaultSuggestions is the static fallback set served when no personalized
// record exists or generation has never succeeded for a user.
var defaultSuggestions = []Suggestion{
	{Text: "Summarize my latest documents"},
	{Text: "What changed since my last visit?"},
	{Text: "Draft a status update for my team"},
	{Text: "Help me plan my week"},
	{Text: "Find files I haven't opened in a while"},
}

// DefaultSuggestions returns a copy of the static default prompt set, so
// callers cannot mutate the shared fallback.
func DefaultSuggestions() []Suggestion {
	out := make([]Suggestion, len(defaultSuggestions))
	copy(out, defaultSuggestions)
	return out
}
