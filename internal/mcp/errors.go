package mcp

import "fmt"

// Operations reported by StatusError.
const (
	OpManifest = "manifest"
	OpCall     = "call"
)

// StatusError is returned when the tool server answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Op == OpCall {
		return fmt.Sprintf("Tool call failed: %d %s - %s", e.StatusCode, e.Status, e.Body)
	}
	return fmt.Sprintf("Failed to fetch manifest: %d %s", e.StatusCode, e.Status)
}
