//go:build !v8 && !js

package scriptnative

import "github.com/webigeo/inputbridge/internal/jsengine/quickjs"

var testFactory = quickjs.Factory(64)
