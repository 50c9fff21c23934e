package model

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds      = errors.New("square out of bounds")
	ErrNoPieceAtSource  = errors.New("no piece at from square")
	ErrIllegalMove      = errors.New("illegal move")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidPromotion = errors.New("invalid promotion piece")
	ErrEmptyHistory     = errors.New("no move to undo")
	ErrGameOver         = errors.New("game is over")
	ErrInvalidPosition  = errors.New("invalid position")

	// ErrSelfCheck matches ErrIllegalMove with errors.Is.
	ErrSelfCheck = fmt.Errorf("%w: leaves own king in check", ErrIllegalMove)
)
