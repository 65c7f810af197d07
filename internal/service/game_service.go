package service

import (
	"io"

	"github.com/benbeisheim/onlinechess-backend/internal/model"
	"github.com/benbeisheim/onlinechess-backend/internal/render"
	"github.com/benbeisheim/onlinechess-backend/internal/ws"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame(playerID string) (string, model.PlayerColor, error) {
	return gs.gameManager.CreateGame(playerID)
}

func (gs *GameService) JoinGame(code string, playerID string) (model.PlayerColor, error) {
	return gs.gameManager.AddPlayerToGame(code, playerID)
}

func (gs *GameService) SetReady(code string, playerID string) (bool, error) {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return false, err
	}
	return game.SetReady(playerID)
}

func (gs *GameService) GetGameState(code string) (model.GameState, error) {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

func (gs *GameService) HandleMove(code string, playerID string, move model.WSMove) error {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return err
	}
	return game.MakeMove(playerID, move)
}

func (gs *GameService) ValidMoves(code string, pos model.Position) ([]model.Position, error) {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return nil, err
	}
	return game.ValidMoves(pos)
}

func (gs *GameService) ResetGame(code string, playerID string) error {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return err
	}
	return game.Reset(playerID)
}

// RenderBoard writes the room's board as SVG, highlighting the moves of the
// selected square when one is given.
func (gs *GameService) RenderBoard(w io.Writer, code string, selected *model.Position) error {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return err
	}
	opts := render.Options{}
	if selected != nil {
		moves, err := game.ValidMoves(*selected)
		if err != nil {
			return err
		}
		opts.Selected = selected
		opts.Moves = moves
	}
	render.Board(w, game.GetState().Board, opts)
	return nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) ListenForMatch(playerID string, ch chan model.MatchFoundEvent) error {
	return gs.gameManager.ListenForMatch(playerID, ch)
}

func (gs *GameService) LeaveMatchmaking(playerID string) {
	gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) bool {
	return gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) RegisterConnection(code string, playerID string, conn model.Conn) error {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gs *GameService) UnregisterConnection(code string, playerID string, conn model.Conn) {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}

// SendTo delivers a message to one player's socket in the room.
func (gs *GameService) SendTo(code string, playerID string, msg ws.Message) error {
	game, err := gs.gameManager.GetGame(code)
	if err != nil {
		return err
	}
	return game.Send(playerID, msg)
}
