package model

import "errors"

var (
	ErrInvalidMove = errors.New("invalid move")

	// These all match ErrInvalidMove under errors.Is.
	ErrOutOfBounds        = &moveError{msg: "square out of bounds"}
	ErrInvalidOrigin      = &moveError{msg: "invalid origin"}
	ErrIllegalDestination = &moveError{msg: "illegal destination"}

	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotInGame     = errors.New("player not in game")
	ErrGameFull      = errors.New("game is full")
	ErrGameOver      = errors.New("game is over")
	ErrTimeExpired   = errors.New("time expired")
	ErrAlreadyQueued = errors.New("player already in queue")
)

type moveError struct {
	msg string
}

func (e *moveError) Error() string { return e.msg }

func (e *moveError) Is(target error) bool {
	return target == ErrInvalidMove
}
