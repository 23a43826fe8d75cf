//go:build js && wasm

// Command inputbridge-wasm runs the input bridge inside the browser page.
// Load it next to the Emscripten module and call
// inputbridge.attach(moduleInstance) once the module is ready.
package main

import (
	"context"
	"log"
	"syscall/js"

	inputbridge "github.com/webigeo/inputbridge"
	"github.com/webigeo/inputbridge/internal/browser"
)

func main() {
	log.SetFlags(0)

	doc := js.Global().Get("document")
	page := browser.Page{
		Canvas:     doc.Call("querySelector", "#canvas"),
		LogWrapper: doc.Call("querySelector", "#log-wrapper"),
		LogElement: doc.Call("querySelector", "#log"),
	}

	cfg := inputbridge.DefaultConfig()
	if v := js.Global().Get("inputbridgeToggleKey"); v.Type() == js.TypeString {
		cfg.ToggleKey = v.String()
	}

	ref := &browser.ModuleRef{}
	b := inputbridge.New(cfg, browser.HostFor(page, ref))
	browser.Install(b, page)
	browser.Export(b, ref, browser.DefaultGlobal)

	go func() {
		if err := b.Run(context.Background()); err != nil {
			log.Printf("inputbridge: loop stopped: %v", err)
		}
	}()

	if ready := js.Global().Get("onInputBridgeReady"); ready.Type() == js.TypeFunction {
		ready.Invoke(js.Global().Get(browser.DefaultGlobal))
	}
	select {}
}
