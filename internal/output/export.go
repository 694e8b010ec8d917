package output

import (
	"fmt"
	"time"
)

// CopyWindow is how long the copy control shows its confirmation.
const CopyWindow = 2 * time.Second

// Labels for the copy control.
const (
	CopyLabel   = "Copy"
	CopiedLabel = "Copied"
)

// DownloadContentType is the media type of exported results.
const DownloadContentType = "application/json"

// CopyFeedback tracks the confirmation shown after a copy.
type CopyFeedback struct {
	copiedAt time.Time
}

// Mark records a copy at now.
func (c *CopyFeedback) Mark(now time.Time) {
	c.copiedAt = now
}

// Reset clears any confirmation.
func (c *CopyFeedback) Reset() {
	c.copiedAt = time.Time{}
}

// Active reports whether the confirmation is still showing at now.
func (c *CopyFeedback) Active(now time.Time) bool {
	if c.copiedAt.IsZero() {
		return false
	}
	return now.Sub(c.copiedAt) < CopyWindow
}

// Label returns the copy control label at now.
func (c *CopyFeedback) Label(now time.Time) string {
	if c.Active(now) {
		return CopiedLabel
	}
	return CopyLabel
}

// Remaining returns how long the confirmation has left, or zero.
func (c *CopyFeedback) Remaining(now time.Time) time.Duration {
	if !c.Active(now) {
		return 0
	}
	return CopyWindow - now.Sub(c.copiedAt)
}

// DownloadName is the file name offered for an export made at now.
func DownloadName(now time.Time) string {
	return fmt.Sprintf("mcp-output-%d.json", now.UnixMilli())
}
