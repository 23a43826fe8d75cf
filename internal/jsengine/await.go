package jsengine

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/webigeo/inputbridge/internal/eventloop"
)

// ErrTimeout is returned when a promise does not settle before the deadline.
var ErrTimeout = errors.New("promise resolution timed out")

// AwaitValue waits for the value at globalThis[globalVar] to settle if it is
// a Promise, pumping microtasks and due timers. On fulfilment the settled
// value replaces the promise; on rejection the reason is returned as an error.
// Non-promise values are left untouched.
func AwaitValue(rt Runtime, globalVar string, deadline time.Time, el *eventloop.EventLoop) error {
	isPromise, err := rt.EvalBool(fmt.Sprintf("globalThis[%q] instanceof Promise", globalVar))
	if err != nil || !isPromise {
		return nil
	}

	setupJS := fmt.Sprintf(`
		delete globalThis.__awaited_result;
		delete globalThis.__awaited_state;
		Promise.resolve(globalThis[%q]).then(
			function(r) { globalThis.__awaited_result = r; globalThis.__awaited_state = 'fulfilled'; },
			function(e) { globalThis.__awaited_result = e; globalThis.__awaited_state = 'rejected'; }
		);
	`, globalVar)
	if err := rt.Eval(setupJS); err != nil {
		return fmt.Errorf("setting up promise await: %w", err)
	}

	for {
		rt.RunMicrotasks()

		if el != nil && el.HasPending() {
			short := time.Now().Add(10 * time.Millisecond)
			if short.After(deadline) {
				short = deadline
			}
			el.Drain(rt, short)
			rt.RunMicrotasks()
		}

		state, err := rt.EvalString("String(globalThis.__awaited_state)")
		if err != nil {
			return fmt.Errorf("checking promise state: %w", err)
		}
		if state != "undefined" {
			break
		}
		if time.Now().After(deadline) {
			_ = rt.Eval("delete globalThis.__awaited_result; delete globalThis.__awaited_state;")
			return ErrTimeout
		}
		runtime.Gosched()
	}

	state, _ := rt.EvalString("String(globalThis.__awaited_state)")
	if state == "rejected" {
		msg, _ := rt.EvalString("String(globalThis.__awaited_result)")
		_ = rt.Eval("delete globalThis.__awaited_result; delete globalThis.__awaited_state;")
		return fmt.Errorf("promise rejected: %s", msg)
	}

	_ = rt.Eval(fmt.Sprintf(
		"globalThis[%q] = globalThis.__awaited_result; delete globalThis.__awaited_result; delete globalThis.__awaited_state;",
		globalVar))
	return nil
}
