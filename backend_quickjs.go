//go:build !v8 && !js

package inputbridge

import (
	"github.com/webigeo/inputbridge/internal/jsengine"
	"github.com/webigeo/inputbridge/internal/jsengine/quickjs"
)

// EngineName identifies the JS engine script natives run on.
const EngineName = "quickjs"

func newScriptFactory(memoryLimitMB int) jsengine.Factory {
	return quickjs.Factory(memoryLimitMB)
}
