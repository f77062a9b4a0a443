package text

// Truncate shortens s to at most maxLen characters, appending an ellipsis
// when anything was cut. Used for log previews of user messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
