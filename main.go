// Command tilematch starts the Tile Match game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket
//     push updates and an /mcp streamable HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API
//     if none is reachable
//
// Flags control host/port, config directory, logging, session expiry and
// optional ngrok tunneling for easy external access during development.
// Every flag can also be set through the environment or a .env file.
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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/tilematch/api"
	"github.com/wricardo/mcp-training/tilematch/game/config"
	"github.com/wricardo/mcp-training/tilematch/game/service"
	"github.com/wricardo/mcp-training/tilematch/game/session"
	"github.com/wricardo/mcp-training/tilematch/transport/mcp"
	"github.com/wricardo/mcp-training/tilematch/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tile Match Game Server"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newCommand builds the CLI. Flags declared on the root are inherited by
// every subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "tilematch",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game themes",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging with human readable output",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "session-max-age",
				Value:   24 * time.Hour,
				Usage:   "Remove sessions not accessed for this long",
				Sources: cli.EnvVars("SESSION_MAX_AGE"),
			},
			&cli.DurationFlag{
				Name:    "cleanup-interval",
				Value:   time.Hour,
				Usage:   "How often expired sessions are removed",
				Sources: cli.EnvVars("SESSION_CLEANUP_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runHTTPServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runHTTPServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "External API server to reuse when it is reachable",
						Sources: cli.EnvVars("MCP_API_URL"),
					},
				},
				Action: runStdioMCP,
			},
		},
	}
}

// setupLogging configures the global zerolog logger. Logs always go to
// stderr so stdio-mcp keeps stdout for the protocol.
func setupLogging(cmd *cli.Command) {
	level, err := zerolog.ParseLevel(cmd.String("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cmd.Bool("debug") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Caller().Logger()
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

// localBaseURL is the URL this process uses to reach its own API
func localBaseURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(port)))
}

// services bundles the managers main wires together
type services struct {
	hub      *websocket.Hub
	sessions *session.Manager
	game     service.GameService
}

// initializeServices wires the push hub, session and config managers and the
// game service. Delayed clears reach WebSocket clients through the hub,
// which acts as the session notifier.
func initializeServices(configDir string) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	hub := websocket.NewHub()
	sessionManager := session.NewManager(session.WithNotifier(hub))

	return &services{
		hub:      hub,
		sessions: sessionManager,
		game:     service.NewGameService(sessionManager, configManager),
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge, until ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// newRouter mounts the MCP endpoint next to the API server
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/mcp", server.NewStreamableHTTPServer(mcpClient.GetMCPServer()))
	router.PathPrefix("/").Handler(apiServer)
	return router
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and the
// /mcp endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	svc, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go svc.hub.Run(ctx)
	go sessionCleanupRoutine(ctx, svc.sessions, cmd.Duration("cleanup-interval"), cmd.Duration("session-max-age"))

	host := cmd.String("host")
	port := int(cmd.Int("port"))
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	apiServer := api.NewServer(svc.game, svc.hub)
	mcpClient := mcp.NewClient(localBaseURL(host, port))
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("version", Version).Str("config_dir", cmd.String("config-dir")).Msgf("starting %s", AppName)

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("websocket", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return runErr
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("websocket", url+"/ws?session=<session_id>").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// apiReachable reports whether a game API answers its health check at baseURL
func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the game API on a random loopback port and
// returns its base URL
func startInternalAPI(ctx context.Context, configDir string) (string, error) {
	svc, err := initializeServices(configDir)
	if err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	go svc.hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(svc.game, svc.hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	baseURL := "http://" + listener.Addr().String()
	log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	return baseURL, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an external API when one
// is reachable and otherwise starts a minimal internal API on loopback.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := cmd.String("api-url")
	if apiReachable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Str("url", baseURL).Msg("no external API server found, starting internal HTTP server")

		var err error
		baseURL, err = startInternalAPI(ctx, cmd.String("config-dir"))
		if err != nil {
			return err
		}
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
