package realtime

import "context"

// noopBus stands in when no Redis is configured, for single-instance or
// test deployments.
type noopBus struct{}

func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(ctx context.Context, ev Event) error                       { return nil }
func (noopBus) StartForwarder(ctx context.Context, onEvent func(ev Event)) error { return nil }
func (noopBus) Close() error                                                      { return nil }
