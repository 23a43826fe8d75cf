package jsengine

import (
	"fmt"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/webigeo/inputbridge/internal/eventloop"
)

// timersJS installs setTimeout/setInterval backed by __timerRegister.
const timersJS = `
(function() {
	globalThis.__timerCallbacks = {};
	globalThis.setTimeout = function(fn, delay) {
		if (typeof fn !== 'function') return 0;
		var args = Array.prototype.slice.call(arguments, 2);
		var id = __timerRegister(delay || 0, false);
		globalThis.__timerCallbacks[id] = { fn: fn, args: args };
		return id;
	};
	globalThis.setInterval = function(fn, interval) {
		if (typeof fn !== 'function') return 0;
		var args = Array.prototype.slice.call(arguments, 2);
		var id = __timerRegister(interval || 0, true);
		globalThis.__timerCallbacks[id] = { fn: fn, args: args, interval: true };
		return id;
	};
	globalThis.clearTimeout = globalThis.clearInterval = function(id) {
		if (typeof id !== 'number') return;
		__timerClear(id);
		delete globalThis.__timerCallbacks[id];
	};
})();
`

// SetupTimers registers Go-backed timers driven by el.
func SetupTimers(rt Runtime, el *eventloop.EventLoop) error {
	if err := rt.RegisterFunc("__timerRegister", func(delayMs int, isInterval bool) int {
		return el.RegisterTimer(time.Duration(delayMs)*time.Millisecond, isInterval)
	}); err != nil {
		return err
	}
	if err := rt.RegisterFunc("__timerClear", func(id int) {
		el.ClearTimer(id)
	}); err != nil {
		return err
	}
	return rt.Eval(timersJS)
}

const consoleJS = `
(function() {
	var levels = ['log', 'info', 'warn', 'error', 'debug'];
	var con = {};
	levels.forEach(function(lvl) {
		con[lvl] = function() {
			var parts = [];
			for (var i = 0; i < arguments.length; i++) {
				var arg = arguments[i];
				if (typeof arg === 'object' && arg !== null) {
					try { parts.push(JSON.stringify(arg)); } catch (e) { parts.push(String(arg)); }
				} else {
					parts.push(String(arg));
				}
			}
			__console(lvl, parts.join(' '));
		};
	});
	globalThis.console = con;
})();
`

// SetupConsole replaces globalThis.console with one that forwards every line
// to sink. A nil sink discards output.
func SetupConsole(rt Runtime, sink func(level, message string)) error {
	if err := rt.RegisterFunc("__console", func(level, message string) {
		if sink != nil {
			sink(level, message)
		}
	}); err != nil {
		return err
	}
	return rt.Eval(consoleJS)
}

// WrapModule converts ES module source into a script that assigns the
// module's exports to globalThis[globalName]. A default export object is
// unwrapped so its members are reachable directly.
func WrapModule(source, globalName string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Format:     api.FormatIIFE,
		GlobalName: "globalThis." + globalName,
		Target:     api.ES2020,
		Sourcefile: "module.js",
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		if msg.Location != nil {
			return "", fmt.Errorf("module.js:%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text)
		}
		return "", fmt.Errorf("module.js: %s", msg.Text)
	}
	code := string(result.Code)
	code += fmt.Sprintf("if(globalThis.%[1]s&&globalThis.%[1]s.default)globalThis.%[1]s=Object.assign({},globalThis.%[1]s,globalThis.%[1]s.default);\n", globalName)
	return code, nil
}
