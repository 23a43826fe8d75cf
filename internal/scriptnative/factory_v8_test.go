//go:build v8 && !js

package scriptnative

import "github.com/webigeo/inputbridge/internal/jsengine/v8engine"

var testFactory = v8engine.Factory(64)
