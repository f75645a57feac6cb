package interfaces

// ProgressSink receives best-effort progress notifications for a running scan.
// Implementations must not block: a slow or absent listener must never stall
// page processing, so emission is fire-and-forget.
type ProgressSink interface {
	// Progress delivers a human-readable progress message for the given scan.
	Progress(scanID, message string)
}

// NopProgressSink discards all progress messages. Used when no listener is
// attached to a scan.
type NopProgressSink struct{}

func (NopProgressSink) Progress(scanID, message string) {}
