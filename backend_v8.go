//go:build v8 && !js

package inputbridge

import (
	"github.com/webigeo/inputbridge/internal/jsengine"
	"github.com/webigeo/inputbridge/internal/jsengine/v8engine"
)

// EngineName identifies the JS engine script natives run on.
const EngineName = "v8"

func newScriptFactory(memoryLimitMB int) jsengine.Factory {
	return v8engine.Factory(memoryLimitMB)
}
