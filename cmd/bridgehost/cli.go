//go:build !js

package main

import "flag"

type cliOpts struct {
	configPath  string
	writeConfig bool
	replay      string
	sessions    bool
	listen      string
}

func parseCLIOpts() cliOpts {
	var opt cliOpts
	flag.StringVar(&opt.configPath, "config", "bridgehost.toml", "Path to the TOML config file")
	flag.BoolVar(&opt.writeConfig, "write-config", false, "Write the default config to -config and exit")
	flag.StringVar(&opt.replay, "replay", "", "Replay a recorded session against the native script and exit")
	flag.BoolVar(&opt.sessions, "sessions", false, "List recorded sessions and exit")
	flag.StringVar(&opt.listen, "listen", "", "Override the listen address from the config")
	flag.Parse()
	return opt
}
