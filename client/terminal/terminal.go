package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
	"github.com/wricardo/mcp-training/coincraze/pkg/logger"
)

const (
	boardLeft = 6
	boardTop  = 4
	cellWidth = 6
	redrawMs  = 100
	helpText  = "arrows move  space select  enter merge  esc cancel  r reset  q quit"
)

// action is a keyboard command
type action int

const (
	actionNone action = iota
	actionUp
	actionDown
	actionLeft
	actionRight
	actionSelect
	actionComplete
	actionCancel
	actionReset
	actionQuit
)

// keyAction maps a key press to a command
func keyAction(key tcell.Key, r rune) action {
	switch key {
	case tcell.KeyUp:
		return actionUp
	case tcell.KeyDown:
		return actionDown
	case tcell.KeyLeft:
		return actionLeft
	case tcell.KeyRight:
		return actionRight
	case tcell.KeyEnter:
		return actionComplete
	case tcell.KeyEscape:
		return actionCancel
	case tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyRune:
		switch r {
		case ' ':
			return actionSelect
		case 'r', 'R':
			return actionReset
		case 'q', 'Q':
			return actionQuit
		}
	}
	return actionNone
}

// layout maps board cells to screen cells
type layout struct {
	left, top, cellWidth int
	rows, columns        int
}

func newLayout(rows, columns int) layout {
	return layout{left: boardLeft, top: boardTop, cellWidth: cellWidth, rows: rows, columns: columns}
}

// cellAt returns the board cell under screen position (x, y)
func (l layout) cellAt(x, y int) (engine.Position, bool) {
	if x < l.left || y < l.top {
		return engine.Position{}, false
	}
	p := engine.Position{Row: y - l.top, Column: (x - l.left) / l.cellWidth}
	if p.Row >= l.rows || p.Column >= l.columns {
		return engine.Position{}, false
	}
	return p, true
}

// origin returns the screen position of a cell's first character
func (l layout) origin(p engine.Position) (int, int) {
	return l.left + p.Column*l.cellWidth, l.top + p.Row
}

// bottom is the first screen row below the board
func (l layout) bottom() int {
	return l.top + l.rows
}

// line is one piece of text placed on screen
type line struct {
	x, y  int
	text  string
	style tcell.Style
}

// UI is the terminal front end for a local game engine
type UI struct {
	screen   tcell.Screen
	game     *engine.GameEngine
	sound    Player
	layout   layout
	cursor   engine.Position
	dragging bool
	status   string
	now      func() time.Time
}

// New creates a UI drawing on an initialized screen
func New(screen tcell.Screen, game *engine.GameEngine, sound Player) *UI {
	grid := game.GetGrid()
	return &UI{
		screen: screen,
		game:   game,
		sound:  sound,
		layout: newLayout(grid.Rows(), grid.Columns()),
		now:    time.Now,
	}
}

// Play runs an interactive game on the terminal until the player quits
func Play(ctx context.Context, cfg *engine.GameConfig) error {
	game, err := engine.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	screen, err := openScreen()
	if err != nil {
		return err
	}
	defer closeScreen(screen)

	sound := NewSpeaker()
	defer sound.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return New(screen, game, sound).Run(ctx)
}

// openScreen takes over the terminal and silences the logger, whose lines
// would corrupt the screen
func openScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()

	logger.SetOutput(io.Discard)
	return screen, nil
}

func closeScreen(screen tcell.Screen) {
	screen.Fini()
	logger.SetOutput(os.Stderr)
}

// pollEvents forwards screen events until the screen is finalized or ctx is done
func pollEvents(ctx context.Context, screen tcell.Screen) <-chan tcell.Event {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// Run processes input and redraws until quit or ctx is done
func (u *UI) Run(ctx context.Context) error {
	events := pollEvents(ctx, u.screen)

	// The level-up banner expires on its own
	ticker := time.NewTicker(redrawMs * time.Millisecond)
	defer ticker.Stop()

	u.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !u.HandleEvent(ev) {
				return nil
			}
			u.Draw()
		case <-ticker.C:
			u.Draw()
		}
	}
}

// HandleEvent applies one terminal event and reports whether to keep running
func (u *UI) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.apply(keyAction(ev.Key(), ev.Rune()))
	case *tcell.EventMouse:
		x, y := ev.Position()
		u.mouse(x, y, ev.Buttons()&tcell.Button1 != 0)
	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *UI) apply(a action) bool {
	switch a {
	case actionUp:
		u.moveCursor(-1, 0)
	case actionDown:
		u.moveCursor(1, 0)
	case actionLeft:
		u.moveCursor(0, -1)
	case actionRight:
		u.moveCursor(0, 1)
	case actionSelect:
		u.selectAt(u.cursor)
	case actionComplete:
		u.complete()
	case actionCancel:
		u.game.CancelSelection()
		u.dragging = false
		u.status = "Selection cancelled"
	case actionReset:
		u.game.Reset()
		u.dragging = false
		u.status = ""
	case actionQuit:
		return false
	}
	return true
}

func (u *UI) moveCursor(dr, dc int) {
	p := engine.Position{Row: u.cursor.Row + dr, Column: u.cursor.Column + dc}
	if p.Row < 0 || p.Row >= u.layout.rows || p.Column < 0 || p.Column >= u.layout.columns {
		return
	}
	u.cursor = p
}

// selectAt begins a chain at p, or extends the current one
func (u *UI) selectAt(p engine.Position) bool {
	var ok bool
	if u.game.GetSelectionSummary().State == engine.SelectionEmpty {
		ok = u.game.BeginSelection(p.Row, p.Column)
	} else {
		ok = u.game.ExtendSelection(p.Row, p.Column)
	}
	if ok {
		u.status = ""
	} else if !u.dragging {
		u.status = fmt.Sprintf("(%d,%d) cannot join the chain", p.Row, p.Column)
	}
	return ok
}

// mouse follows a drag: press begins, motion extends, release completes
func (u *UI) mouse(x, y int, pressed bool) {
	p, onBoard := u.layout.cellAt(x, y)

	switch {
	case pressed && !u.dragging:
		if !onBoard {
			return
		}
		u.game.CancelSelection()
		u.dragging = true
		u.cursor = p
		u.selectAt(p)
	case pressed && u.dragging:
		if onBoard {
			u.cursor = p
			u.selectAt(p)
		}
	case !pressed && u.dragging:
		u.dragging = false
		u.complete()
	}
}

func (u *UI) complete() {
	if len(u.game.GetSelection()) == 0 {
		u.status = "Nothing selected"
		return
	}

	result := u.game.CompleteSelection()
	u.status = ""

	switch {
	case result.LevelUp != nil:
		u.sound.Play(ToneLevelUp)
	case result.Merged:
		u.sound.Play(ToneSuccess)
	default:
		u.sound.Play(ToneFailure)
	}

	logger.Log.WithFields(logrus.Fields{
		"chain":       len(result.Chain),
		"sum":         result.Sum,
		"merged":      result.Merged,
		"score_delta": result.ScoreDelta,
		"reshuffled":  result.Reshuffled,
	}).Debug("Turn completed")
}

// frame lays out everything the screen shows at now
func (u *UI) frame(now time.Time) []line {
	state := u.game.GetState()

	message := state.Message
	if u.status != "" {
		message = u.status
	}

	cursor := u.cursor
	lines := renderState(u.layout, state, &cursor, message, now)

	y := u.layout.bottom() + 1
	lines = append(lines,
		line{0, y, chainText(u.game.GetSelectionSummary()), tcell.StyleDefault},
		line{0, y + 4, helpText, tcell.StyleDefault.Foreground(tcell.ColorGray)},
	)
	return lines
}

// renderState lays out the header, preview row, board, message and level-up
// banner. The line right below the board is left to the caller.
func renderState(l layout, state *engine.GameState, cursor *engine.Position, message string, now time.Time) []line {
	plain := tcell.StyleDefault
	dim := plain.Foreground(tcell.ColorGray)

	lines := []line{
		{0, 0, "CoinCraze  " + state.ConfigName, plain.Bold(true)},
		{0, 1, fmt.Sprintf("Level %d   Score %d/%d   Turns %d", state.Level, state.Score, state.TargetScore, state.CurrentTurnsCount), plain},
		{0, 2, "next", dim},
		{l.left, 3, strings.Repeat("-", l.columns*l.cellWidth), dim},
	}

	for c, d := range state.Preview {
		x, _ := l.origin(engine.Position{Column: c})
		lines = append(lines, line{x, 2, fmt.Sprintf(" %4s ", d), coinStyle(d).Dim(true)})
	}

	inChain := make(map[engine.Position]bool, len(state.Selection))
	for _, p := range state.Selection {
		inChain[p] = true
	}

	for r, row := range state.Grid {
		for c, d := range row {
			p := engine.Position{Row: r, Column: c}
			x, y := l.origin(p)
			text := fmt.Sprintf(" %4s ", d)
			if cursor != nil && p == *cursor {
				text = fmt.Sprintf("[%4s]", d)
			}
			style := coinStyle(d)
			if inChain[p] {
				style = style.Reverse(true)
			}
			lines = append(lines, line{x, y, text, style})
		}
	}

	y := l.bottom() + 2
	lines = append(lines, line{0, y, message, plain})

	if state.LevelUpActive(now) {
		banner := fmt.Sprintf("*** LEVEL %d! New target: %d ***", state.LevelUp.Level, state.LevelUp.TargetScore)
		lines = append(lines, line{0, y + 1, banner, plain.Foreground(tcell.ColorYellow).Bold(true)})
	}
	return lines
}

// Draw renders the current frame
func (u *UI) Draw() {
	draw(u.screen, u.frame(u.now()))
}

func draw(screen tcell.Screen, lines []line) {
	screen.Clear()
	for _, l := range lines {
		drawText(screen, l.x, l.y, l.style, l.text)
	}
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func chainText(s engine.SelectionSummary) string {
	if len(s.Chain) == 0 {
		return "Chain: none"
	}
	text := fmt.Sprintf("Chain: %d × %s = %d of %d needed", len(s.Chain), s.BaseValue, s.Sum, s.NextValue)
	if s.WouldMerge {
		text += " (release to merge)"
	}
	return text
}

func coinStyle(d engine.Denomination) tcell.Style {
	style := tcell.StyleDefault
	switch d {
	case engine.One:
		return style.Foreground(tcell.ColorWhite)
	case engine.Five:
		return style.Foreground(tcell.ColorGreen)
	case engine.Ten:
		return style.Foreground(tcell.ColorAqua)
	case engine.Fifty:
		return style.Foreground(tcell.ColorYellow)
	case engine.Hundred:
		return style.Foreground(tcell.ColorFuchsia)
	case engine.FiveHundred:
		return style.Foreground(tcell.ColorRed).Bold(true)
	}
	return style.Foreground(tcell.ColorGray)
}
