package controller

import (
	"bytes"
	"errors"

	"github.com/benbeisheim/onlinechess-backend/internal/model"
	"github.com/benbeisheim/onlinechess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// statusFor maps room errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrGameFull), errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrPlayerNotInGame):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrInvalidMove),
		errors.Is(err, model.ErrOutOfBounds):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}

// NewPlayer hands out an id for clients that do not have one yet.
func (gc *GameController) NewPlayer(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"player_id": uuid.New().String(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	code, color, err := gc.gameService.CreateGame(playerID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message":   "Game created",
		"game_code": code,
		"color":     color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	code := c.Params("code")

	color, err := gc.gameService.JoinGame(code, playerID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) Ready(c *fiber.Ctx) error {
	started, err := gc.gameService.SetReady(c.Params("code"), playerID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"started": started,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("code"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) ValidMoves(c *fiber.Ctx) error {
	pos := model.Position{Row: c.QueryInt("row", -1), Col: c.QueryInt("col", -1)}

	moves, err := gc.gameService.ValidMoves(c.Params("code"), pos)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"position": pos,
		"moves":    moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid move",
		})
	}

	if err := gc.gameService.HandleMove(c.Params("code"), playerID(c), move); err != nil {
		return errorResponse(c, err)
	}

	gameState, err := gc.gameService.GetGameState(c.Params("code"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) ResetGame(c *fiber.Ctx) error {
	if err := gc.gameService.ResetGame(c.Params("code"), playerID(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game reset",
	})
}

// BoardSVG renders the board. With row and col query parameters the square
// and its legal moves are highlighted.
func (gc *GameController) BoardSVG(c *fiber.Ctx) error {
	var selected *model.Position
	if c.Query("row") != "" && c.Query("col") != "" {
		selected = &model.Position{Row: c.QueryInt("row", -1), Col: c.QueryInt("col", -1)}
	}

	var buf bytes.Buffer
	if err := gc.gameService.RenderBoard(&buf, c.Params("code"), selected); err != nil {
		return errorResponse(c, err)
	}
	c.Type("svg")
	return c.Send(buf.Bytes())
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(playerID(c)); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}
