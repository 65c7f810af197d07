package model

import "errors"

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameFull        = errors.New("game is full")
	ErrPlayerNotInGame = errors.New("player not in game")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameOver        = errors.New("game is over")
	ErrInvalidMove     = errors.New("invalid move")
	ErrOutOfBounds     = errors.New("square out of bounds")
	ErrAlreadyQueued   = errors.New("player already in queue")
)
