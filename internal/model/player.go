package model

type Player struct {
	ID    string
	Color Color
}

type ClientPlayer struct {
	ID       string `json:"id"`
	Color    Color  `json:"color"`
	Computer bool   `json:"computer"`
}
