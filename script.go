//go:build !js

package inputbridge

import (
	"time"

	"github.com/webigeo/inputbridge/internal/scriptnative"
)

// ScriptNative is a native target implemented by a JavaScript module.
type ScriptNative = scriptnative.Module

// LoadScriptNative loads an ES module whose exported functions answer the
// native calls. Console output from the module goes to logf, which may be
// nil.
func LoadScriptNative(source string, cfg HostConfig, logf func(level, message string)) (*ScriptNative, error) {
	return scriptnative.Load(source, scriptnative.Options{
		Factory: newScriptFactory(cfg.MemoryLimitMB),
		Timeout: time.Duration(cfg.ExecutionTimeoutMS) * time.Millisecond,
		Log:     logf,
	})
}
