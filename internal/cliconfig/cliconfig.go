// Package cliconfig parses the proxy binary's flags and environment
// variables. Flags are defined with pflag; values are bound into viper
// so an explicit flag always wins over its AURORA_SWARM_* env var
// equivalent, per viper's BindPFlag precedence rules.
package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/auroraswarm/swarm/internal/reverseproxy"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 9090

	envPrefix = "AURORA_SWARM"
)

// Config is the fully resolved CLI/env configuration for the proxy
// binary. Pool-side knobs (concurrency, model, token budgets) are
// resolved separately by swarmpool.New from its own env vars, since
// they only matter to in-process callers, not the standalone proxy.
type Config struct {
	Hostfile       string
	Host           string
	Port           int
	ConnectorLimit int
	Timeout        time.Duration
	LogLevel       string
	PProf          bool
}

// Parse builds a *pflag.FlagSet, binds it into a fresh viper instance
// alongside AURORA_SWARM_* environment variables, and returns the
// resolved Config. args is normally os.Args[1:].
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("aurora-swarm", pflag.ContinueOnError)

	fs.StringP("hostfile", "f", "", "path to the agent hostfile (required)")
	fs.String("host", DefaultHost, "address to bind the proxy to")
	fs.IntP("port", "p", DefaultPort, "port to bind the proxy to")
	fs.Int("connector-limit", reverseproxy.DefaultConnectorLimit, "max concurrent connections per downstream agent")
	fs.IntP("timeout", "t", int(reverseproxy.DefaultTimeout/time.Second), "per-request upstream timeout, in seconds")
	fs.String("log-level", "info", "DEBUG, INFO, WARNING, ERROR or CRITICAL")
	fs.Bool("pprof", false, "expose net/http/pprof on localhost")
	fs.Bool("version", false, "print version information and exit") // consumed directly by main before Parse is called

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"hostfile", "host", "port", "connector-limit", "timeout", "log-level", "pprof"} {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("cliconfig: bind flag %q: %w", name, err)
		}
	}

	cfg := &Config{
		Hostfile:       v.GetString("hostfile"),
		Host:           v.GetString("host"),
		Port:           v.GetInt("port"),
		ConnectorLimit: v.GetInt("connector-limit"),
		Timeout:        time.Duration(v.GetInt("timeout")) * time.Second,
		LogLevel:       normaliseLogLevel(v.GetString("log-level")),
		PProf:          v.GetBool("pprof"),
	}

	if cfg.Hostfile == "" {
		return nil, fmt.Errorf("cliconfig: --hostfile (or %s_HOSTFILE) is required", envPrefix)
	}

	return cfg, nil
}

func normaliseLogLevel(level string) string {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return "debug"
	case "INFO":
		return "info"
	case "WARNING", "WARN":
		return "warn"
	case "ERROR":
		return "error"
	case "CRITICAL", "FATAL":
		return "error"
	default:
		return "info"
	}
}
