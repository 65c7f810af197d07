// service/game_manager.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbeisheim/onlinechess-backend/internal/model"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	mu               sync.RWMutex

	timeControl time.Duration
	idleTTL     time.Duration
	interval    time.Duration
	newCode     func() string
	now         func() time.Time
}

// Option configures a GameManager.
type Option func(*GameManager)

// WithTimeControl sets the clock budget per side for new games. Zero is untimed.
func WithTimeControl(d time.Duration) Option {
	return func(gm *GameManager) {
		if d >= 0 {
			gm.timeControl = d
		}
	}
}

// WithIdleTTL sets how long a room with no connections survives without activity.
func WithIdleTTL(d time.Duration) Option {
	return func(gm *GameManager) {
		if d > 0 {
			gm.idleTTL = d
		}
	}
}

// WithMatchmakingInterval sets the tick of the matchmaking and sweep loop.
func WithMatchmakingInterval(d time.Duration) Option {
	return func(gm *GameManager) {
		if d > 0 {
			gm.interval = d
		}
	}
}

func NewGameManager(opts ...Option) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		timeControl:      10 * time.Minute,
		idleTTL:          time.Hour,
		interval:         time.Second,
		newCode:          generateGameCode,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

// generateGameCode turns the random bytes of a v4 uuid into a short room code.
func generateGameCode() string {
	id := uuid.New()
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[int(id[i])%len(codeAlphabet)]
	}
	return string(code)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Run pairs queued players and sweeps idle rooms until ctx is done.
func (gm *GameManager) Run(ctx context.Context) {
	ticker := time.NewTicker(gm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.processMatchmaking()
			gm.sweepIdleGames()
		}
	}
}

// createGameLocked needs gm.mu held for writing.
func (gm *GameManager) createGameLocked() *model.Game {
	code := gm.newCode()
	for {
		if _, exists := gm.games[code]; !exists {
			break
		}
		code = gm.newCode()
	}
	game := model.NewGame(code, gm.timeControl)
	gm.games[code] = game
	return game
}

// CreateGame opens a room and seats the creator as white.
func (gm *GameManager) CreateGame(playerID string) (string, model.PlayerColor, error) {
	gm.mu.Lock()
	game := gm.createGameLocked()
	gm.mu.Unlock()

	color, err := game.AddPlayer(playerID)
	if err != nil {
		return "", "", err
	}
	log.Infow("game created", "game", game.Code, "player", playerID)
	return game.Code, color, nil
}

func (gm *GameManager) GetGame(code string) (*model.Game, error) {
	code = normalizeCode(code)

	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[code]
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrGameNotFound, code)
	}
	return game, nil
}

func (gm *GameManager) AddPlayerToGame(code string, playerID string) (model.PlayerColor, error) {
	game, err := gm.GetGame(code)
	if err != nil {
		return "", err
	}
	color, err := game.AddPlayer(playerID)
	if err != nil {
		return "", err
	}
	log.Infow("player joined", "game", game.Code, "player", playerID, "color", color)
	game.Broadcast()
	return color, nil
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(playerID); err != nil {
		log.Warnw("failed to join matchmaking", "player", playerID, "error", err)
		return err
	}
	log.Infow("player queued", "player", playerID, "queued", gm.queue.Size())
	return nil
}

// ListenForMatch subscribes ch to the player's match and queues the player.
// A player who is already queued keeps their place and ch takes over from
// the channel that was listening before.
func (gm *GameManager) ListenForMatch(playerID string, ch chan model.MatchFoundEvent) error {
	gm.RegisterMatchmakingChannel(playerID, ch)

	err := gm.queue.AddPlayer(playerID)
	if errors.Is(err, model.ErrAlreadyQueued) {
		log.Infow("matchmaking listener replaced", "player", playerID)
		return nil
	}
	if err != nil {
		gm.UnregisterMatchmakingChannel(playerID, ch)
		return err
	}
	log.Infow("player queued", "player", playerID, "queued", gm.queue.Size())
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) {
	gm.queue.RemovePlayer(playerID)
}

// RegisterMatchmakingChannel subscribes ch to the player's match. A channel
// registered earlier for the same player is closed.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets the channel without closing it; its
// creator owns it. It reports whether ch was still the player's listener.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, exists := gm.matchingChannels[playerID]; exists && current == ch {
		delete(gm.matchingChannels, playerID)
		return true
	}
	return false
}

// processMatchmaking seats the two longest waiting players in a new room and
// notifies them.
func (gm *GameManager) processMatchmaking() {
	for {
		first, second, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gm.mu.Lock()
		game := gm.createGameLocked()
		for _, p := range []model.QueuedPlayer{first, second} {
			color, err := game.AddPlayer(p.PlayerID)
			if err != nil {
				log.Errorw("failed to seat matched player", "game", game.Code, "player", p.PlayerID, "error", err)
				continue
			}
			gm.notifyMatchLocked(p.PlayerID, model.MatchFoundEvent{GameCode: game.Code, Color: color})
		}
		gm.mu.Unlock()

		log.Infow("match made", "game", game.Code, "white", first.PlayerID, "black", second.PlayerID)
	}
}

func (gm *GameManager) notifyMatchLocked(playerID string, event model.MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		log.Warnw("matched player has no listener", "player", playerID, "game", event.GameCode)
		return
	}
	select {
	case ch <- event:
	default:
		log.Warnw("failed to deliver match", "player", playerID, "game", event.GameCode)
	}
	delete(gm.matchingChannels, playerID)
	close(ch)
}

// sweepIdleGames removes rooms nobody is connected to that have been quiet
// for longer than the idle TTL.
func (gm *GameManager) sweepIdleGames() {
	now := gm.now()

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for code, game := range gm.games {
		if game.ConnectionCount() > 0 || now.Sub(game.LastActivity()) < gm.idleTTL {
			continue
		}
		game.Close()
		delete(gm.games, code)
		log.Infow("idle game removed", "game", code)
	}
}
