package controller

import (
	"github.com/benbeisheim/onlinechess-backend/internal/config"
	"github.com/benbeisheim/onlinechess-backend/internal/middleware"
	"github.com/benbeisheim/onlinechess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// NewApp builds the fiber app with every REST and websocket route.
func NewApp(cfg config.Config, gameService *service.GameService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "onlinechess",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: cfg.AllowOrigins != "*",
	}))

	gameController := NewGameController(gameService)
	wsController := NewWebSocketController(gameService)

	// Set up WebSocket routes
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         cfg.Origins(),
	}
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsRoutes.Get("/matchmaking", websocket.New(wsController.HandleMatchmaking, wsConfig))
	wsRoutes.Get("/game/:code", websocket.New(wsController.HandleConnection, wsConfig))

	// Set up REST routes
	app.Post("/api/player", gameController.NewPlayer)
	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/join/:code", gameController.JoinGame)
	gameRoutes.Post("/:code/ready", gameController.Ready)
	gameRoutes.Post("/:code/move", gameController.MakeMove)
	gameRoutes.Post("/:code/reset", gameController.ResetGame)
	gameRoutes.Get("/:code/moves", gameController.ValidMoves)
	gameRoutes.Get("/:code/board.svg", gameController.BoardSVG)
	gameRoutes.Get("/:code", gameController.GetGameState)

	return app
}
