package models

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CloneTurns copies a transcript.
func CloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
