package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbeisheim/chess-backend/internal/botclient"
	"github.com/benbeisheim/chess-backend/internal/controller"
	"github.com/benbeisheim/chess-backend/internal/mcp"
	"github.com/benbeisheim/chess-backend/internal/middleware"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	serve := &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server: REST API, WebSocket and the /mcp endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":3000",
				Usage:   "listen address",
				Sources: cli.EnvVars("CHESS_ADDR"),
			},
			&cli.StringSliceFlag{
				Name:    "origins",
				Value:   []string{"http://localhost:5173"},
				Usage:   "allowed browser origins",
				Sources: cli.EnvVars("CHESS_ALLOWED_ORIGINS"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "also serve through an ngrok tunnel (needs NGROK_AUTHTOKEN)",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "reserved ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServer,
	}

	return &cli.Command{
		Name:           "chess",
		Usage:          "two-player chess server",
		Commands:       []*cli.Command{serve, mcpCommand(), botCommand()},
		DefaultCommand: "serve",
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the chess tools over MCP stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "player",
				Value: mcp.DefaultPlayerID,
				Usage: "player id the tools act as",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// stdout carries the protocol
			log.SetOutput(os.Stderr)
			gameManager := service.NewGameManager()
			defer gameManager.Close()
			return mcp.NewServer(service.NewGameService(gameManager), cmd.String("player")).ServeStdio()
		},
	}
}

func botCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "play a seat of a running game with the move selector",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "ws://localhost:3000",
				Usage:   "server base url",
				Sources: cli.EnvVars("CHESS_SERVER"),
			},
			&cli.StringFlag{
				Name:     "game",
				Usage:    "game id",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "player",
				Usage:    "player id holding the seat",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "origin",
				Value: "http://localhost:5173",
				Usage: "Origin header for the WebSocket handshake",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			bot := botclient.New(cmd.String("server"), cmd.String("game"), cmd.String("player"),
				botclient.WithOrigin(cmd.String("origin")))
			return bot.Run(ctx)
		},
	}
}

// newApp wires middleware, controllers and routes around gameService.
func newApp(gameService *service.GameService, origins []string) *fiber.App {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger())

	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService)
	mcpServer := mcp.NewServer(gameService, "")

	// WebSocket routes
	app.Use("/ws/*", middleware.EnsurePlayerID())
	app.Get("/ws/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}))

	// MCP over HTTP
	app.Post("/mcp", func(c *fiber.Ctx) error {
		response, err := mcpServer.HandleMessage(c.UserContext(), c.Body())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to marshal response",
			})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(response)
	})

	// REST routes
	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gameController.LeaveMatchmaking)
	gameRoutes.Get("/matchmaking/wait", gameController.WaitForMatch)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/join/:gameId", gameController.JoinGame)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/moves", gameController.LegalMoves)
	gameRoutes.Get("/:gameId/suggest", gameController.SuggestMove)
	gameRoutes.Post("/:gameId/move", gameController.MakeMove)
	gameRoutes.Post("/:gameId/undo", gameController.Undo)
	gameRoutes.Post("/:gameId/resign", gameController.Resign)
	gameRoutes.Post("/:gameId/reset", gameController.Reset)

	return app
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	gameManager := service.NewGameManager()
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager)

	app := newApp(gameService, cmd.StringSlice("origins"))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// the tunnel is served alongside --addr, never instead of it
	if cmd.Bool("ngrok") {
		ln, err := listenNgrok(ctx, cmd.String("ngrok-domain"))
		if err != nil {
			return err
		}
		go func() {
			if err := app.Listener(ln); err != nil {
				log.Printf("ngrok listener stopped: %v", err)
			}
		}()
	}

	addr := cmd.String("addr")
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("REST API: http://%s/api", addr)
	log.Printf("MCP endpoint: http://%s/mcp", addr)
	return app.Listen(addr)
}

func listenNgrok(ctx context.Context, domain string) (ngrok.Tunnel, error) {
	authToken := os.Getenv("NGROK_AUTHTOKEN")
	if authToken == "" {
		return nil, errors.New("ngrok enabled but NGROK_AUTHTOKEN is not set")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		return nil, fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}
	log.Printf("Ngrok tunnel established: %s", tun.URL())
	log.Printf("  REST API (ngrok): %s/api", tun.URL())
	log.Printf("  MCP endpoint (ngrok): %s/mcp", tun.URL())
	return tun, nil
}
