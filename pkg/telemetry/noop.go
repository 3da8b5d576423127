package telemetry

// NoopPublisher discards every event. The engine uses it when no
// publisher is supplied.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) Publish(event TelemetryEvent) {}
