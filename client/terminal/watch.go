package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
	"github.com/wricardo/mcp-training/coincraze/game/service"
	"github.com/wricardo/mcp-training/coincraze/pkg/logger"
	hub "github.com/wricardo/mcp-training/coincraze/transport/websocket"
)

const watchHelp = "q quit"

// Spectator mirrors a server session read-only: one state fetch, then the
// session's WebSocket feed
type Spectator struct {
	baseURL   string
	sessionID string
	sound     Player
	client    *http.Client

	mu        sync.RWMutex
	state     *engine.GameState
	lastEvent string
	connected bool
}

// NewSpectator creates a spectator for sessionID on the server at baseURL.
// A nil sound plays nothing.
func NewSpectator(baseURL, sessionID string, sound Player) *Spectator {
	return &Spectator{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		sessionID: sessionID,
		sound:     sound,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Watch follows a session on a running server until the viewer quits
func Watch(ctx context.Context, baseURL, sessionID string) error {
	s := NewSpectator(baseURL, sessionID, nil)
	if err := s.fetchState(ctx); err != nil {
		return err
	}
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	screen, err := openScreen()
	if err != nil {
		return err
	}
	defer closeScreen(screen)

	sound := NewSpeaker()
	defer sound.Close()
	s.sound = sound

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan struct{}, 1)
	go s.listen(conn, updates)
	events := pollEvents(ctx, screen)

	ticker := time.NewTicker(redrawMs * time.Millisecond)
	defer ticker.Stop()

	draw(screen, s.frame(time.Now()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if a := keyAction(ev.Key(), ev.Rune()); a == actionQuit || a == actionCancel {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-updates:
		case <-ticker.C:
		}
		draw(screen, s.frame(time.Now()))
	}
}

// fetchState loads the current snapshot over the REST API
func (s *Spectator) fetchState(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/sessions/%s/state", s.baseURL, url.PathEscape(s.sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("session %s: %s", s.sessionID, apiErr.Error)
		}
		return fmt.Errorf("session %s: API error: %d", s.sessionID, resp.StatusCode)
	}

	var state engine.GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}

	s.mu.Lock()
	s.state = &state
	s.mu.Unlock()
	return nil
}

// wsURL derives the feed URL from the API base URL
func (s *Spectator) wsURL() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"session": {s.sessionID}}.Encode()
	return u.String(), nil
}

func (s *Spectator) connect(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := s.wsURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	logger.WithSession(s.sessionID).Debug("WebSocket connected")
	return conn, nil
}

// listen applies feed messages until the connection drops. Each applied
// message is signalled on notify without blocking.
func (s *Spectator) listen(conn *websocket.Conn, notify chan<- struct{}) error {
	signal := func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.connected = false
			s.mu.Unlock()
			signal()
			return err
		}

		var msg hub.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.WithSession(s.sessionID).WithError(err).Debug("Skipping malformed message")
			continue
		}
		s.apply(&msg)
		signal()
	}
}

func (s *Spectator) apply(msg *hub.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.GameState != nil {
		s.state = msg.GameState
	}
	if msg.Event == hub.EventStateUpdate {
		return
	}

	s.lastEvent = msg.Event
	if data, ok := msg.Data.(map[string]interface{}); ok {
		if text, ok := data["message"].(string); ok && text != "" {
			s.lastEvent = text
		}
	}

	if s.sound == nil {
		return
	}
	switch msg.Event {
	case service.EventMergeSuccess:
		s.sound.Play(ToneSuccess)
	case service.EventMergeFailure:
		s.sound.Play(ToneFailure)
	case service.EventLevelUp:
		s.sound.Play(ToneLevelUp)
	}
}

func (s *Spectator) frame(now time.Time) []line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return []line{{0, 0, "Waiting for session " + s.sessionID, tcell.StyleDefault}}
	}

	l := newLayout(s.state.Rows, s.state.Columns)
	message := s.state.Message
	if s.lastEvent != "" {
		message = s.lastEvent
	}
	lines := renderState(l, s.state, nil, message, now)

	status := "Watching session " + strings.ToUpper(s.sessionID)
	if !s.connected {
		status += " (disconnected)"
	}
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)
	return append(lines,
		line{0, l.bottom() + 1, status, dim},
		line{0, l.bottom() + 5, watchHelp, dim},
	)
}
