// Command coincraze runs the CoinCraze game.
//
// Commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, the
//     WebSocket feed and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server, reusing an API server when one is up
//     and starting an internal one otherwise
//  3. "play" plays in the terminal against a local engine
//  4. "watch" follows a server session live in the terminal
//  5. "validate" checks every configuration in the config directory
//
// Flags control host/port, config directory, debug logging and optional
// ngrok tunneling for external access during development. Every flag can
// also be set from the environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/coincraze/api"
	"github.com/wricardo/mcp-training/coincraze/client/terminal"
	"github.com/wricardo/mcp-training/coincraze/game/config"
	"github.com/wricardo/mcp-training/coincraze/game/engine"
	"github.com/wricardo/mcp-training/coincraze/game/service"
	"github.com/wricardo/mcp-training/coincraze/game/session"
	"github.com/wricardo/mcp-training/coincraze/pkg/logger"
	"github.com/wricardo/mcp-training/coincraze/transport/mcp"
	"github.com/wricardo/mcp-training/coincraze/transport/websocket"
	"github.com/wricardo/mcp-training/coincraze/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "CoinCraze Server"
)

const (
	defaultAPIURL    = "http://localhost:8080"
	cleanupInterval  = time.Hour
	sessionRetention = 24 * time.Hour
)

func main() {
	// A missing .env file is fine
	envErr := godotenv.Load()

	logger.Init()
	if envErr == nil {
		logger.Log.Debug("Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		logger.Log.WithError(envErr).Warn("Error loading .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logger.Log.WithError(err).Fatal("coincraze failed")
	}
}

// newApp builds the command tree. Global flags are visible to every command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "coincraze",
		Usage:   "coin-merging puzzle game server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logger.Log.SetLevel(logrus.DebugLevel)
			}
			return ctx, nil
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: defaultAPIURL, Usage: "API server to proxy when it is running", Sources: cli.EnvVars("COINCRAZE_API_URL")},
				},
				Action: runMCP,
			},
			{
				Name:  "play",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "configuration to play (default: the config directory's default)"},
				},
				Action: runPlay,
			},
			{
				Name:  "watch",
				Usage: "follow a server session live in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session", Usage: "session ID to follow", Required: true},
					&cli.StringFlag{Name: "api-url", Value: defaultAPIURL, Usage: "API server hosting the session", Sources: cli.EnvVars("COINCRAZE_API_URL")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return terminal.Watch(ctx, cmd.String("api-url"), cmd.String("session"))
				},
			},
			{
				Name:  "validate",
				Usage: "validate the configuration files",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return validateConfigs(os.Stdout, cmd.String("config-dir"))
				},
			},
		},
	}
}

// initializeServices wires the config and session managers into the game service
func initializeServices(configDir string) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	return service.NewGameService(sessionManager, configManager), sessionManager, nil
}

// newHandler mounts the MCP endpoint next to the REST API and WebSocket routes
func newHandler(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	apiServer.Handle("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return apiServer
}

// runServer serves HTTP until interrupted. With ngrok enabled the same
// handler is also served through a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	gameService, sessions, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions.StartCleanup(ctx, cleanupInterval, sessionRetention)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	handler := newHandler(gameService, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.WithFields(logrus.Fields{
			"addr":      addr,
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("%s v%s listening", AppName, Version)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var wg sync.WaitGroup
	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runTunnel(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Info("Shutting down...")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Log.Info("Server stopped")
	return nil
}

// runTunnel serves handler through ngrok until ctx is done
func runTunnel(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Log.WithField("domain", domain).Info("Using custom ngrok domain")
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	logger.Log.WithFields(logrus.Fields{
		"rest":      url + "/api",
		"websocket": url + "/ws?session=<session_id>",
		"mcp":       url + "/mcp",
	}).Infof("Ngrok tunnel established: %s", url)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Log.WithError(err).Error("Ngrok server error")
	}
	logger.Log.Info("Ngrok tunnel closed")
}

// apiAvailable reports whether a CoinCraze API answers its health check at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port and returns its URL
func startInternalAPI(ctx context.Context, configDir string) (string, *http.Server, error) {
	gameService, sessions, err := initializeServices(configDir)
	if err != nil {
		return "", nil, err
	}
	sessions.StartCleanup(ctx, cleanupInterval, sessionRetention)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Error("Internal HTTP server error")
		}
	}()

	return "http://" + listener.Addr().String(), httpServer, nil
}

// runMCP serves MCP over stdio. Logs go to stderr so stdout carries only
// protocol messages.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := cmd.String("api-url")
	logger.Log.WithField("url", baseURL).Info("Checking for external API server")

	if apiAvailable(baseURL) {
		logger.Log.Info("MCP stdio server ready (using external HTTP server)")
	} else {
		internalURL, httpServer, err := startInternalAPI(ctx, cmd.String("config-dir"))
		if err != nil {
			return err
		}
		defer httpServer.Close()

		baseURL = internalURL
		logger.Log.WithField("url", baseURL).Info("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// loadPlayConfig picks the named configuration, or the directory default.
// Without a config directory the built-in classic board is used.
func loadPlayConfig(configDir, name string) (*engine.GameConfig, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		if name != "" {
			return nil, err
		}
		logger.Log.WithError(err).Warn("Using built-in classic configuration")
		return engine.DefaultGameConfig(), nil
	}

	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadPlayConfig(cmd.String("config-dir"), cmd.String("config"))
	if err != nil {
		return err
	}
	return terminal.Play(ctx, cfg)
}

// validateConfigs prints a validation report and fails when any file is invalid
func validateConfigs(w io.Writer, configDir string) error {
	results, err := validate.Dir(configDir)
	if err != nil {
		return err
	}
	if !validate.Report(w, results) {
		return fmt.Errorf("invalid configurations in %s", configDir)
	}
	return nil
}
