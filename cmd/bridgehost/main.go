//go:build !js

// Command bridgehost serves the browser shell for development and answers
// native calls over a websocket, either with a scripted native module or by
// recording the calls to a journal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	inputbridge "github.com/webigeo/inputbridge"
	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/journal"
	"github.com/webigeo/inputbridge/internal/shell"
	"github.com/webigeo/inputbridge/internal/upload"
	"github.com/webigeo/inputbridge/internal/wsbridge"
)

func main() {
	opt := parseCLIOpts()
	log.SetPrefix("bridgehost: ")

	if opt.writeConfig {
		if err := inputbridge.WriteConfig(opt.configPath, inputbridge.DefaultConfig()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", opt.configPath)
		return
	}

	cfg, err := loadConfig(opt.configPath)
	if err != nil {
		log.Fatal(err)
	}
	if opt.listen != "" {
		cfg.Host.Listen = opt.listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opt); err != nil {
		log.Fatal(err)
	}
}

// loadConfig falls back to the defaults when the file does not exist.
func loadConfig(path string) (inputbridge.Config, error) {
	cfg, err := inputbridge.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("no config at %s, using defaults", path)
		return inputbridge.DefaultConfig(), nil
	}
	return cfg, err
}

func run(ctx context.Context, cfg inputbridge.Config, opt cliOpts) error {
	var jr *journal.Journal
	if cfg.Host.JournalPath != "" {
		var err error
		if jr, err = journal.Open(cfg.Host.JournalPath); err != nil {
			return err
		}
		defer jr.Close()
	}

	if opt.sessions {
		if jr == nil {
			return fmt.Errorf("no journal_path configured")
		}
		names, err := jr.Sessions(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	var srv *wsbridge.Server
	logLine := func(level, msg string) {
		log.Printf("native [%s] %s", level, msg)
		if srv != nil {
			srv.Log(msg)
		}
	}

	var native core.Native
	if cfg.Host.NativeScript != "" {
		src, err := os.ReadFile(cfg.Host.NativeScript)
		if err != nil {
			return fmt.Errorf("reading native script: %w", err)
		}
		mod, err := inputbridge.LoadScriptNative(string(src), cfg.Host, logLine)
		if err != nil {
			return err
		}
		defer mod.Close()
		native = mod
		log.Printf("native script %s on %s", cfg.Host.NativeScript, inputbridge.EngineName)
	}

	if opt.replay != "" {
		if jr == nil {
			return fmt.Errorf("no journal_path configured")
		}
		target := native
		if target == nil {
			target = core.NativeFunc(func(_ context.Context, name string, args ...any) error {
				fmt.Println(name, args)
				return nil
			})
		}
		n, err := jr.Replay(ctx, opt.replay, target)
		log.Printf("replayed %d calls from %s", n, opt.replay)
		return err
	}

	if jr != nil {
		rec := jr.Recorder(journal.NewSession(), native)
		log.Printf("recording session %s", rec.Session())
		native = rec
	}

	srv = wsbridge.NewServer(native, cfg.Host.OriginPatterns...)

	var link core.Link
	link.Attach(native)
	files := upload.New(upload.DirFS(cfg.Host.UploadRoot), cfg.UploadDir, &link)

	mux := http.NewServeMux()
	mux.Handle(wsbridge.Path, srv)
	mux.Handle("/upload", shell.UploadHandler(files, 0, cfg.Host.OriginPatterns...))
	mux.Handle("/", shell.New(shell.Options{
		Dir:                 cfg.Host.ShellDir,
		Scripts:             cfg.Host.Scripts,
		EmulatorScript:      cfg.EmulatorScript,
		BrotliLevel:         cfg.Host.BrotliLevel,
		CrossOriginIsolated: cfg.Host.CrossOriginIsolated,
		Hidden:              []string{cfg.UploadDir},
	}))

	hs := &http.Server{
		Addr:              cfg.Host.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on http://%s", cfg.Host.Listen)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
