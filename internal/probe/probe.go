// Package probe checks whether the graphics backend, and its optional
// timestamp queries, can be used in the current host.
package probe

import "context"

// FeatureTimestampQuery is the optional device feature needed for GPU timing.
const FeatureTimestampQuery = "timestamp-query"

// OpWriteTimestamp is the command-encoder operation GPU timing relies on.
const OpWriteTimestamp = "writeTimestamp"

// GPU is the host graphics API entry point. A nil GPU means the API is not
// exposed at all.
type GPU interface {
	RequestAdapter(ctx context.Context) (Adapter, error)
}

// Adapter hands out devices.
type Adapter interface {
	RequestDevice(ctx context.Context, requiredFeatures []string) (Device, error)
}

// Device is a logical graphics device.
type Device interface {
	HasFeature(name string) bool
	CreateCommandEncoder() CommandEncoder
}

// CommandEncoder records GPU commands.
type CommandEncoder interface {
	// HasOperation reports whether the encoder exposes the named method.
	HasOperation(name string) bool
}

// Capabilities is the outcome of one probe.
type Capabilities struct {
	GraphicsAvailable bool
	TimingAvailable   bool
}

// Probe runs the capability ladder against gpu. It stops at the first
// failing step; only the last steps can leave graphics available without
// timing. Nothing is cached between calls and no error escapes.
func Probe(ctx context.Context, gpu GPU) Capabilities {
	var caps Capabilities
	if gpu == nil {
		return caps
	}
	adapter, err := gpu.RequestAdapter(ctx)
	if err != nil || adapter == nil {
		return caps
	}
	device, err := adapter.RequestDevice(ctx, []string{FeatureTimestampQuery})
	if err != nil || device == nil {
		return caps
	}
	caps.GraphicsAvailable = true

	if !device.HasFeature(FeatureTimestampQuery) {
		return caps
	}
	enc := device.CreateCommandEncoder()
	if enc == nil || !enc.HasOperation(OpWriteTimestamp) {
		return caps
	}
	caps.TimingAvailable = true
	return caps
}
