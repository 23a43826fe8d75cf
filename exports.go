package inputbridge

import (
	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/mouse"
	"github.com/webigeo/inputbridge/internal/probe"
	"github.com/webigeo/inputbridge/internal/touch"
)

// Type aliases re-exporting internal types so hosts can drive the bridge
// without importing internal packages.

type Native = core.Native
type NativeFunc = core.NativeFunc
type Contact = core.Contact
type Phase = core.Phase
type TouchBatch = touch.Batch
type MouseEvent = mouse.Event
type Capabilities = probe.Capabilities

// Constants re-exported from core.
const (
	MaxSlots          = core.MaxSlots
	CallTouch         = core.CallTouch
	CallMouseButton   = core.CallMouseButton
	CallMousePosition = core.CallMousePosition
	CallResize        = core.CallResize
	CallFileUploaded  = core.CallFileUploaded
)
