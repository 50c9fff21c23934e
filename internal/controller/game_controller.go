package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbeisheim/chess-backend/internal/middleware"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService  *service.GameService
	matchTimeout time.Duration
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService, matchTimeout: 30 * time.Second}
}

type createGameRequest struct {
	Opponent string `json:"opponent"`
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrNotYourTurn), errors.Is(err, service.ErrNotInGame):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrGameFull), errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrOutOfBounds), errors.Is(err, service.ErrUnknownMode):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrIllegalMove),
		errors.Is(err, model.ErrNoPieceAtSource),
		errors.Is(err, model.ErrInvalidPromotion),
		errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrEmptyHistory):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func sendError(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.PlayerIDKey).(string)
	return id
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}
	opponent, err := service.ParseOpponent(req.Opponent)
	if err != nil {
		return sendError(c, err)
	}

	gameID, color, err := gc.gameService.StartGame(playerID(c), opponent)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Game created",
		"game_id":  gameID,
		"color":    color,
		"opponent": opponent,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	color, err := gc.gameService.JoinGame(gameID, playerID(c))
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	view, err := gc.gameService.GetGameView(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(view)
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	square, err := model.ParseSquare(c.Query("square"))
	if err != nil {
		return sendError(c, err)
	}
	targets, err := gc.gameService.LegalMoves(c.Params("gameId"), square)
	if err != nil {
		return sendError(c, err)
	}
	moves := make([]string, 0, len(targets))
	for _, t := range targets {
		moves = append(moves, t.String())
	}
	return c.JSON(fiber.Map{
		"square": square.String(),
		"moves":  moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var req ws.MovePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	mv, err := model.ParseMove(req.From, req.To, req.Promotion)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPromotion) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return sendError(c, err)
	}

	gameID := c.Params("gameId")
	ply, err := gc.gameService.HandleMove(gameID, playerID(c), mv)
	if err != nil {
		return sendError(c, err)
	}
	view, err := gc.gameService.GetGameView(gameID)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"ply":  ply,
		"game": view,
	})
}

func (gc *GameController) Undo(c *fiber.Ctx) error {
	return gc.mutate(c, gc.gameService.Undo)
}

func (gc *GameController) Reset(c *fiber.Ctx) error {
	return gc.mutate(c, gc.gameService.Reset)
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	return gc.mutate(c, gc.gameService.Resign)
}

// mutate runs a seat-checked action and answers with the resulting view.
func (gc *GameController) mutate(c *fiber.Ctx, action func(gameID, playerID string) error) error {
	gameID := c.Params("gameId")
	if err := action(gameID, playerID(c)); err != nil {
		return sendError(c, err)
	}
	view, err := gc.gameService.GetGameView(gameID)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(view)
}

func (gc *GameController) SuggestMove(c *fiber.Ctx) error {
	mv, err := gc.gameService.SuggestMove(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"from":      mv.From.String(),
		"to":        mv.To.String(),
		"promotion": mv.Promotion,
	})
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(playerID(c)); err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(playerID(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "player not queued",
		})
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

// WaitForMatch blocks until the queued player is paired or the wait times out.
func (gc *GameController) WaitForMatch(c *fiber.Ctx) error {
	id := playerID(c)
	ch := make(chan string, 1)
	if err := gc.gameService.RegisterMatchmakingChannel(id, ch); err != nil {
		return sendError(c, err)
	}

	select {
	case event, ok := <-ch:
		if !ok {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "superseded by another wait",
			})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(event)
	case <-time.After(gc.matchTimeout):
		gc.gameService.UnregisterMatchmakingChannel(id)
		// a match may have landed between the timeout and unregistering
		select {
		case event, ok := <-ch:
			if ok {
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.SendString(event)
			}
		default:
		}
		fmt.Println("Matchmaking wait timed out for player", id)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
