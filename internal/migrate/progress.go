package migrate

// Reporter receives pipeline progress callbacks. Implementations render
// terminal progress or stay silent; callbacks may arrive from worker
// goroutines and must be safe for concurrent use.
type Reporter interface {
	// OnDiscoveryComplete fires once the source set is known.
	OnDiscoveryComplete(files int)

	// OnFileProcessed fires after each source file finishes, in completion
	// order, not discovery order.
	OnFileProcessed(path string)

	// OnWriteStart fires before materialization with the merged record count.
	OnWriteStart(records int)

	// OnComplete fires with the final report.
	OnComplete(rep *Report)
}

// NoOpReporter discards all progress callbacks.
type NoOpReporter struct{}

func (n *NoOpReporter) OnDiscoveryComplete(files int) {}

func (n *NoOpReporter) OnFileProcessed(path string) {}

func (n *NoOpReporter) OnWriteStart(records int) {}

func (n *NoOpReporter) OnComplete(rep *Report) {}
