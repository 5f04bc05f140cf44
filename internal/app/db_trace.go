package app

import "strings"

// Span attributes have to stay readable; migrations and multi-line
// statements would otherwise dump whole SQL files into the trace.
const maxTracedQueryLength = 512

func formatDBQueryForTrace(query string) string {
	flattened := strings.Join(strings.Fields(query), " ")
	if len(flattened) <= maxTracedQueryLength {
		return flattened
	}

	return flattened[:maxTracedQueryLength] + "..."
}
