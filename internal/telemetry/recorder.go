package telemetry

import "context"

// Recorder receives engine events worth counting.
type Recorder interface {
	SessionEntered(ctx context.Context, kind string)
	Transition(ctx context.Context, cause, outcome string)
	Submission(ctx context.Context, outcome string)
	Close(ctx context.Context) error
}

// NoOp is used when telemetry is disabled.
type NoOp struct{}

func (NoOp) SessionEntered(context.Context, string)      {}
func (NoOp) Transition(context.Context, string, string) {}
func (NoOp) Submission(context.Context, string)         {}
func (NoOp) Close(context.Context) error                { return nil }
