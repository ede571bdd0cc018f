package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/auroraswarm/swarm/internal/cliconfig"
	"github.com/auroraswarm/swarm/internal/hostfile"
	"github.com/auroraswarm/swarm/internal/logger"
	"github.com/auroraswarm/swarm/internal/router"
	"github.com/auroraswarm/swarm/internal/version"
	"github.com/auroraswarm/swarm/pkg/format"
	"github.com/auroraswarm/swarm/pkg/nerdstats"
	"github.com/auroraswarm/swarm/pkg/profiler"
	"github.com/auroraswarm/swarm/pkg/runtimeinfo"

	"github.com/auroraswarm/swarm/internal/reverseproxy"
)

func main() {
	startTime := time.Now()
	vlog := log.New(log.Writer(), "", 0)

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	}
	version.PrintVersionInfo(false, vlog)

	cfg, err := cliconfig.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logInstance, styledLogger, cleanup, err := logger.NewStyledLogger(&logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     "./logs",
		Theme:      "default",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		FileOutput: true,
		PrettyLogs: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	slog.SetDefault(logInstance)

	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())
	if runtimeinfo.IsContainerised() {
		styledLogger.Info("Running inside a container")
	}

	endpoints, err := hostfile.Parse(cfg.Hostfile)
	if err != nil {
		logger.FatalWithLogger(logInstance, "Failed to load hostfile", "error", err, "path", cfg.Hostfile)
	}
	styledLogger.InfoWithCount("Loaded agents from hostfile", len(endpoints))

	if cfg.PProf {
		profiler.InitialiseProfiler()
		styledLogger.Info("Profiler enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		styledLogger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	watchHostfileForChanges(ctx, cfg.Hostfile, styledLogger)

	proxy := reverseproxy.New(endpoints, cfg.ConnectorLimit, cfg.Timeout)
	defer proxy.Close()

	routes := router.NewRouteRegistry(styledLogger)
	routes.Register("GET", "/health", "liveness probe")
	routes.Register("GET", "/status", "agent roster and proxy uptime")
	routes.Register("*", "/agent/{index}/{path...}", "forward to the indexed agent, streaming the response")
	routes.LogTable()

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: proxy.Handler(),
	}

	serveErrCh := make(chan error, 1)
	go func() {
		styledLogger.Info("Listening", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErrCh:
		if err != nil {
			styledLogger.Error("Proxy server failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		styledLogger.Error("Error during shutdown", "error", err)
	}

	reportProcessStats(styledLogger, startTime)
	styledLogger.Info("Aurora Swarm has shut down")
}

// watchHostfileForChanges logs a warning if the hostfile changes after
// startup. The pool/proxy agent roster is never rebuilt from a running
// process — membership changes are a deliberate non-goal — so this is
// purely an observability aid for a long-running deployment.
func watchHostfileForChanges(ctx context.Context, path string, log logger.StyledLogger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("Could not start hostfile watcher", "error", err)
		return
	}
	if err := watcher.Add(path); err != nil {
		log.Warn("Could not watch hostfile", "error", err, "path", path)
		_ = watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Warn("Hostfile changed after startup; agent roster was not reloaded", "path", path, "op", event.Op.String())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Hostfile watcher error", "error", err)
			}
		}
	}()
}

func reportProcessStats(log logger.StyledLogger, startTime time.Time) {
	runtime.GC()
	stats := nerdstats.Snapshot(startTime)

	log.Info("Process memory stats",
		"heap_alloc", format.Bytes(stats.HeapAlloc),
		"heap_sys", format.Bytes(stats.HeapSys),
		"total_alloc", format.Bytes(stats.TotalAlloc),
		"memory_pressure", stats.GetMemoryPressure(),
	)
	log.Info("Runtime stats",
		"uptime", format.Duration(stats.Uptime),
		"go_version", stats.GoVersion,
		"num_goroutines", stats.NumGoroutines,
		"goroutine_health", stats.GetGoroutineHealthStatus(),
	)
}
