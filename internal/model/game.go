package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/onlinechess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
)

const (
	ResolveCheckmate = "checkmate"
	ResolveStalemate = "stalemate"
	ResolveTimeout   = "timeout"
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.Mutex
	broadcastMu sync.Mutex // orders snapshots and their delivery
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// Game is one room: a board, two seats, the side to move and the clocks.
// Every call into the board goes through g.mu.
type Game struct {
	Code         string
	mu           sync.Mutex
	board        *Board
	white        *Player
	black        *Player
	toMove       PlayerColor
	started      bool
	resolve      *string
	winner       *PlayerColor
	history      []Move
	captured     CapturedPieces
	lastMove     *SimpleMove
	clocks       map[PlayerColor]*Clock
	lastActivity time.Time
	connections  *GameConnections
}

type GameState struct {
	Code           string         `json:"code"`
	Board          BoardState     `json:"boardState"`
	ToMove         PlayerColor    `json:"toMove"`
	Started        bool           `json:"started"`
	GameOver       bool           `json:"gameOver"`
	Winner         *PlayerColor   `json:"winner"`
	Resolve        *string        `json:"resolve"`
	MoveHistory    []Move         `json:"moveHistory"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	LastMove       *SimpleMove    `json:"lastMove"`
	Timed          bool           `json:"timed"`
	Players        struct {
		White *ClientPlayer `json:"white"`
		Black *ClientPlayer `json:"black"`
	} `json:"players"`
}

// CapturedPieces lists what each side has taken.
type CapturedPieces struct {
	White []PieceType `json:"white"`
	Black []PieceType `json:"black"`
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]PieceType, 0),
		Black: make([]PieceType, 0),
	}
}

// NewGame opens a room with a fresh board. timeControl is the budget per side,
// zero for untimed play.
func NewGame(code string, timeControl time.Duration) *Game {
	return &Game{
		Code:     code,
		board:    NewBoard(),
		toMove:   PlayerColorWhite,
		history:  make([]Move, 0),
		captured: newCapturedPieces(),
		clocks: map[PlayerColor]*Clock{
			PlayerColorWhite: NewClock(timeControl),
			PlayerColorBlack: NewClock(timeControl),
		},
		lastActivity: time.Now(),
		connections:  NewGameConnections(),
	}
}

// AddPlayer seats a player. The first player is white, the second black, and
// a player already seated gets their color back.
func (g *Game) AddPlayer(playerID string) (PlayerColor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		log.Infow("player rejoined", "game", g.Code, "player", playerID, "color", color)
		return color, nil
	}

	g.touch()
	if g.white == nil {
		g.white = &Player{ID: playerID, Color: PlayerColorWhite}
		return PlayerColorWhite, nil
	}
	if g.black == nil {
		g.black = &Player{ID: playerID, Color: PlayerColorBlack}
		return PlayerColorBlack, nil
	}
	return "", ErrGameFull
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) colorOf(playerID string) (PlayerColor, bool) {
	if g.white != nil && g.white.ID == playerID {
		return PlayerColorWhite, true
	}
	if g.black != nil && g.black.ID == playerID {
		return PlayerColorBlack, true
	}
	return "", false
}

func (g *Game) isFull() bool {
	return g.white != nil && g.black != nil
}

// SetReady marks the player ready and starts the game once both seats are
// filled and ready. It reports whether the game is running.
func (g *Game) SetReady(playerID string) (bool, error) {
	g.mu.Lock()
	color, ok := g.colorOf(playerID)
	if !ok {
		g.mu.Unlock()
		return false, ErrPlayerNotInGame
	}
	g.seat(color).Ready = true
	g.touch()

	if !g.started && g.isFull() && g.white.Ready && g.black.Ready {
		g.started = true
		g.clocks[g.toMove].Start()
		log.Infow("game started", "game", g.Code)
	}
	started := g.started
	g.mu.Unlock()

	g.Broadcast()
	return started, nil
}

func (g *Game) seat(color PlayerColor) *Player {
	if color == PlayerColorWhite {
		return g.white
	}
	return g.black
}

// MakeMove plays a move for the player. The player must be seated, it must be
// their turn, the piece must be theirs and the board must accept the move.
func (g *Game) MakeMove(playerID string, move WSMove) error {
	g.mu.Lock()
	err := g.makeMove(playerID, move.Simple())
	g.mu.Unlock()

	if err != nil {
		return err
	}
	g.Broadcast()
	return nil
}

func (g *Game) makeMove(playerID string, move SimpleMove) error {
	color, ok := g.colorOf(playerID)
	if !ok {
		return ErrPlayerNotInGame
	}
	g.checkTimeout()
	if g.resolve != nil {
		return ErrGameOver
	}
	if color != g.toMove {
		return ErrNotYourTurn
	}
	if !move.From.InBounds() || !move.To.InBounds() {
		return fmt.Errorf("%w: %w", ErrInvalidMove, ErrOutOfBounds)
	}

	piece, ok := g.board.GetPiece(move.From.Row, move.From.Col)
	if !ok {
		return fmt.Errorf("%w: no piece at from square", ErrInvalidMove)
	}
	if piece.Color != color {
		return fmt.Errorf("%w: piece belongs to %s", ErrInvalidMove, piece.Color)
	}
	target, captured := g.board.GetPiece(move.To.Row, move.To.Col)

	if !g.board.MakeMove(move.From.Row, move.From.Col, move.To.Row, move.To.Col) {
		return ErrInvalidMove
	}

	ply := &Ply{Piece: piece.Type, From: move.From, To: move.To}
	if captured {
		ply.CapturedPiece = &target.Type
		g.recordCapture(color, target.Type)
	}
	if landed, _ := g.board.GetPiece(move.To.Row, move.To.Col); landed.Type != piece.Type {
		ply.Promotion = true
	}
	g.recordPly(color, ply)
	g.lastMove = &move

	g.clocks[color].Stop()
	g.toMove = color.Opponent()
	g.touch()

	switch {
	case g.board.IsCheckmate(g.toMove):
		g.finish(ResolveCheckmate, &color)
	case g.board.IsStalemate(g.toMove):
		g.finish(ResolveStalemate, nil)
	default:
		if g.started {
			g.clocks[g.toMove].Start()
		}
	}

	log.Infow("move played", "game", g.Code, "color", color, "from", move.From, "to", move.To)
	return nil
}

func (g *Game) recordCapture(by PlayerColor, pieceType PieceType) {
	if by == PlayerColorWhite {
		g.captured.White = append(g.captured.White, pieceType)
		return
	}
	g.captured.Black = append(g.captured.Black, pieceType)
}

func (g *Game) recordPly(color PlayerColor, ply *Ply) {
	if color == PlayerColorWhite || len(g.history) == 0 {
		move := Move{}
		if color == PlayerColorWhite {
			move.WhitePly = ply
		} else {
			move.BlackPly = ply
		}
		g.history = append(g.history, move)
		return
	}
	g.history[len(g.history)-1].BlackPly = ply
}

func (g *Game) finish(resolve string, winner *PlayerColor) {
	g.resolve = &resolve
	g.winner = winner
	for _, c := range g.clocks {
		c.Stop()
	}
	log.Infow("game over", "game", g.Code, "resolve", resolve)
}

// checkTimeout ends the game when the side to move has run out of time.
func (g *Game) checkTimeout() {
	if g.resolve != nil || !g.clocks[g.toMove].Expired() {
		return
	}
	winner := g.toMove.Opponent()
	g.finish(ResolveTimeout, &winner)
}

// ValidMoves lists the legal destinations from a square.
func (g *Game) ValidMoves(pos Position) ([]Position, error) {
	if !pos.InBounds() {
		return nil, ErrOutOfBounds
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.board.GetValidMoves(pos.Row, pos.Col), nil
}

// Reset puts a fresh board in place and clears ready flags, history and clocks.
// Seats are kept.
func (g *Game) Reset(playerID string) error {
	g.mu.Lock()
	if _, ok := g.colorOf(playerID); !ok {
		g.mu.Unlock()
		return ErrPlayerNotInGame
	}
	g.board = NewBoard()
	g.toMove = PlayerColorWhite
	g.started = false
	g.resolve = nil
	g.winner = nil
	g.history = make([]Move, 0)
	g.captured = newCapturedPieces()
	g.lastMove = nil
	for _, p := range []*Player{g.white, g.black} {
		if p != nil {
			p.Ready = false
		}
	}
	for _, c := range g.clocks {
		c.Reset()
	}
	g.touch()
	log.Infow("game reset", "game", g.Code, "player", playerID)
	g.mu.Unlock()

	g.Broadcast()
	return nil
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkTimeout()
	return g.state()
}

func (g *Game) state() GameState {
	state := GameState{
		Code:           g.Code,
		Board:          g.board.GetBoardState(),
		ToMove:         g.toMove,
		Started:        g.started,
		GameOver:       g.resolve != nil,
		Winner:         g.winner,
		Resolve:        g.resolve,
		MoveHistory:    append([]Move(nil), g.history...),
		CapturedPieces: CapturedPieces{
			White: append([]PieceType{}, g.captured.White...),
			Black: append([]PieceType{}, g.captured.Black...),
		},
		LastMove: g.lastMove,
		Timed:    g.clocks[PlayerColorWhite].Timed(),
	}
	state.Players.White = g.clientPlayer(g.white)
	state.Players.Black = g.clientPlayer(g.black)
	return state
}

func (g *Game) clientPlayer(p *Player) *ClientPlayer {
	if p == nil {
		return nil
	}
	return &ClientPlayer{
		ID:        p.ID,
		Color:     p.Color,
		Ready:     p.Ready,
		Connected: g.isConnected(p.ID),
		TimeLeft:  int(g.clocks[p.Color].GetTimeLeft().Milliseconds()),
	}
}

func (g *Game) isConnected(playerID string) bool {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	_, ok := g.connections.connections[playerID]
	return ok
}

// Board returns a copy of the current position.
func (g *Game) Board() *Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Copy()
}

func (g *Game) touch() {
	g.lastActivity = time.Now()
}

func (g *Game) LastActivity() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActivity
}

// RegisterConnection attaches a websocket for a seated player, or for a
// spectator while a seat is still open. A second connection for the same
// player replaces the first.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	_, seated := g.colorOf(playerID)
	authorized := seated || !g.isFull()
	g.mu.Unlock()

	if !authorized {
		return ErrPlayerNotInGame
	}

	g.connections.mu.Lock()
	if old, exists := g.connections.connections[playerID]; exists && old != conn {
		log.Infow("replacing connection", "game", g.Code, "player", playerID)
		if err := old.Close(); err != nil {
			log.Debugw("failed to close replaced connection", "game", g.Code, "player", playerID, "error", err)
		}
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()

	g.Broadcast()
	return nil
}

// UnregisterConnection only drops conn if it is still the player's current
// one. The room is told about the disconnect.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	current, exists := g.connections.connections[playerID]
	removed := exists && current == conn
	if removed {
		delete(g.connections.connections, playerID)
	}
	remaining := len(g.connections.connections)
	g.connections.mu.Unlock()

	if !removed {
		return
	}
	log.Infow("connection closed", "game", g.Code, "player", playerID, "connections", remaining)
	g.Broadcast()
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	return len(g.connections.connections)
}

// Broadcast sends the current state to every connection. Connections that
// fail a write are dropped. Broadcasts run one at a time, so the last
// snapshot taken is the last one delivered.
func (g *Game) Broadcast() {
	g.connections.broadcastMu.Lock()
	defer g.connections.broadcastMu.Unlock()

	payload, err := json.Marshal(g.GetState())
	if err != nil {
		log.Errorw("failed to marshal state", "game", g.Code, "error", err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	// writes stay under the lock so a connection never has two writers
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	for playerID, conn := range g.connections.connections {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnw("failed to send state", "game", g.Code, "player", playerID, "error", err)
			delete(g.connections.connections, playerID)
		}
	}
}

// Send writes one message to a single player's connection, if any.
func (g *Game) Send(playerID string, msg ws.Message) error {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	conn, ok := g.connections.connections[playerID]
	if !ok {
		return nil
	}
	return conn.WriteJSON(msg)
}

// Close disconnects everyone. Used when the room is swept.
func (g *Game) Close() {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	for playerID, conn := range g.connections.connections {
		if err := conn.Close(); err != nil {
			log.Debugw("failed to close connection", "game", g.Code, "player", playerID, "error", err)
		}
		delete(g.connections.connections, playerID)
	}
}
