// Package botclient plays a seat of a remote game with the heuristic move
// selector. It follows the game over the server's WebSocket, rebuilds the
// position from the move history and answers whenever its side is to move.
package botclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/benbeisheim/chess-backend/internal/ai"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gorilla/websocket"
)

var ErrNotSeated = errors.New("bot is not seated in this game")

type Client struct {
	serverURL string
	gameID    string
	playerID  string
	origin    string
	dialer    *websocket.Dialer
	selector  *ai.Selector

	// answered is the FEN of the position we last replied to. It is cleared
	// once the turn passes, so a position reached again is answered again.
	answered string
}

type Option func(*Client)

// WithOrigin sets the Origin header sent on the handshake.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = origin }
}

func WithSelector(selector *ai.Selector) Option {
	return func(c *Client) { c.selector = selector }
}

func New(serverURL, gameID, playerID string, opts ...Option) *Client {
	c := &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		gameID:    gameID,
		playerID:  playerID,
		dialer:    websocket.DefaultDialer,
		selector:  ai.NewSelector(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) gameURL() (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/game/" + url.PathEscape(c.gameID)
	q := u.Query()
	q.Set("playerId", c.playerID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run plays until the game ends, the connection drops or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	wsURL, err := c.gameURL()
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	header := http.Header{}
	if c.origin != "" {
		header.Set("Origin", c.origin)
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()
	log.Printf("bot %s connected to game %s", c.playerID, c.gameID)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("bot: parse error: %v", err)
			continue
		}

		switch msg.Type {
		case ws.MessageTypeGameState:
			var view service.GameView
			if err := json.Unmarshal(msg.Payload, &view); err != nil {
				log.Printf("bot: bad game state: %v", err)
				continue
			}
			done, err := c.handleState(conn, view)
			if err != nil || done {
				return err
			}
		case ws.MessageTypeError:
			log.Printf("bot: server error: %s", string(msg.Payload))
			// the move may have been refused; answer the next state afresh
			c.answered = ""
		}
	}
}

// handleState answers view when it is our turn. It reports true once the game
// is over.
func (c *Client) handleState(conn *websocket.Conn, view service.GameView) (bool, error) {
	if view.Resolve != nil {
		log.Printf("bot %s: game %s over (%s)", c.playerID, c.gameID, *view.Resolve)
		return true, nil
	}

	var mine []model.Color
	if view.Players.White.ID == c.playerID {
		mine = append(mine, model.White)
	}
	if view.Players.Black.ID == c.playerID {
		mine = append(mine, model.Black)
	}
	if len(mine) == 0 {
		return true, fmt.Errorf("%w: %s", ErrNotSeated, c.gameID)
	}
	if !slices.Contains(mine, view.ToMove) {
		c.answered = ""
		return false, nil
	}
	if view.FEN == c.answered {
		return false, nil
	}

	state, err := Replay(view.MoveHistory)
	if err != nil {
		return false, err
	}
	mv, err := c.selector.SelectMove(state, view.ToMove)
	if err != nil {
		return false, err
	}

	payload, err := json.Marshal(ws.MovePayload{
		From:      mv.From.String(),
		To:        mv.To.String(),
		Promotion: string(mv.Promotion),
	})
	if err != nil {
		return false, err
	}
	if err := conn.WriteJSON(ws.Message{Type: ws.MessageTypeMove, Payload: payload}); err != nil {
		return false, fmt.Errorf("write: %w", err)
	}
	c.answered = view.FEN
	log.Printf("bot %s: played %s", c.playerID, mv)
	return false, nil
}

// Replay rebuilds a game from the standard position and its move history.
func Replay(history []model.Ply) (*model.GameState, error) {
	state := model.NewGame()
	for i, ply := range history {
		if _, err := state.ApplyMove(ply.Move()); err != nil {
			return nil, fmt.Errorf("replay ply %d (%s): %w", i+1, ply.Notation, err)
		}
	}
	return state, nil
}
