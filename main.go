// Command suibotics-core runs the crowd-control session coordinator.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API,
//     the WebSocket notification feed, Prometheus metrics, and an /mcp
//     HTTP endpoint
//  2. "mcp" – runs an MCP stdio server over an in-process coordinator
//
// Configuration comes from flags, environment variables, and an optional
// .env file; flags win.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/OpenDive/suibotics-core-sub002/api"
	"github.com/OpenDive/suibotics-core-sub002/config"
	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/service"
	"github.com/OpenDive/suibotics-core-sub002/control/store"
	"github.com/OpenDive/suibotics-core-sub002/metrics"
	"github.com/OpenDive/suibotics-core-sub002/registry"
	"github.com/OpenDive/suibotics-core-sub002/transport/mcp"
	"github.com/OpenDive/suibotics-core-sub002/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Suibotics Swarm Control"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:    "suibotics-core",
		Usage:   "crowd-control session coordinator for a physical device swarm",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "HTTP server host",
				Value: cfg.Host,
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP server port",
				Value: cfg.Port,
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "path to the session database; empty keeps sessions in memory",
				Value: cfg.DataPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
				Value: cfg.Debug,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP server (REST, WebSocket, metrics, /mcp)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runServer(ctx, cmd)
				},
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server over an in-process coordinator",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(cmd)
				},
			},
		},
		// Default to serve when invoked without a subcommand.
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, cmd)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildCoordinator wires the store, metrics, and service behind publisher.
// The returned closer is nil for the in-memory store.
func buildCoordinator(dataPath string, publisher event.Publisher, logger *slog.Logger, m *metrics.Metrics) (service.ControlService, io.Closer, error) {
	if dataPath == "" {
		logger.Info("using in-memory session store")
		st := store.NewMemory(publisher)
		return service.NewControlService(st, publisher, logger, m), nil, nil
	}

	logger.Info("using bbolt session store", "path", dataPath)
	st, err := store.OpenBolt(dataPath, publisher)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	return service.NewControlService(st, publisher, logger, m), st, nil
}

// runServer starts the HTTP server with the REST API, WebSocket hub,
// Prometheus metrics, and the /mcp endpoint.
func runServer(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool("debug"))
	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	hub := websocket.NewHub(logger)
	go hub.Run()

	svc, closer, err := buildCoordinator(cmd.String("data"), hub, logger, m)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	devices := registry.NewMemoryDevices(nil)
	credentials := registry.NewMemoryCredentials(nil)
	apiServer := api.NewServer(svc, devices, credentials, hub)
	mcpServer := mcp.NewServer(svc)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		logger.Info("endpoints",
			"rest", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"metrics", fmt.Sprintf("http://%s/metrics", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-serveCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// runStdioMCP runs the MCP server over stdio with an in-process
// coordinator. Logs go to stderr so stdout stays clean for the protocol.
func runStdioMCP(cmd *cli.Command) error {
	logger := newLogger(cmd.Bool("debug"))
	m := metrics.New(prometheus.NewRegistry())

	hub := websocket.NewHub(logger)
	go hub.Run()

	svc, closer, err := buildCoordinator(cmd.String("data"), hub, logger, m)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	logger.Info("mcp stdio server ready")
	return mcp.NewServer(svc).Serve()
}
