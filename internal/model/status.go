package model

type StatusKind string

const (
	InProgress StatusKind = "in_progress"
	Check      StatusKind = "check"
	Checkmate  StatusKind = "checkmate"
	Stalemate  StatusKind = "stalemate"
)

// Status is the outcome of the position for the side to move. Color names
// the side in check or mated and is empty otherwise.
type Status struct {
	Kind  StatusKind `json:"kind"`
	Color Color      `json:"color,omitempty"`
}

func (s Status) IsOver() bool {
	return s.Kind == Checkmate || s.Kind == Stalemate
}

func (s Status) String() string {
	if s.Color == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + "(" + string(s.Color) + ")"
}
