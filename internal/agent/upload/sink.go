package upload

// ProgressSink receives a full report snapshot after every status
// transition. The concrete delivery mechanism (event bus, websocket,
// direct callback) belongs to the presentation layer; the coordinator only
// publishes.
//
// Publish is called from coordinator goroutines and must not block for
// long.
type ProgressSink interface {
	Publish(report Report)
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(Report)

func (f SinkFunc) Publish(report Report) {
	f(report)
}
