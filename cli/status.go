package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/atomic"
	"golang.org/x/text/width"
)

const (
	stepDone    = "✔"
	stepCurrent = "●"
	stepPending = "○"
	stepJoin    = " ─ "

	cardTopLeft     = "╒"
	cardTopRight    = "╕"
	cardBottomLeft  = "└"
	cardBottomRight = "┘"
	cardTop         = "═"
	cardBottom      = "─"
	cardSide        = "│"
	ellipsis        = "…"

	// Narrower terminals get the plain rendering.
	minCardWidth = 12

	DefaultTerminalWidth = 80
)

var plainCards atomic.Bool //nolint:gochecknoglobals

// SetPlain makes status cards render without a frame, for plain terminals and logs.
func SetPlain(plain bool) {
	plainCards.Store(plain)
}

// StepBar renders stepper titles on one line, marking completed steps and
// the current one.
func StepBar(titles []string, complete []bool, current int) string {
	parts := make([]string, 0, len(titles))

	for i, title := range titles {
		mark := stepPending

		switch {
		case i == current:
			mark = stepCurrent
		case i < len(complete) && complete[i]:
			mark = stepDone
		}

		parts = append(parts, mark+" "+title)
	}

	return strings.Join(parts, stepJoin)
}

// StatusCard is the lesson position shown above every walkthrough prompt.
type StatusCard struct {
	Title     string
	Steps     []string
	Completed []bool
	Step      int

	Marker  string
	Rank    int
	Markers int

	// Locked lists markers still behind a gate.
	Locked []string
}

// Lines returns the card content, one entry per rendered row.
func (c StatusCard) Lines() []string {
	lines := []string{
		c.Title,
		StepBar(c.Steps, c.Completed, c.Step),
		fmt.Sprintf("marker %s (%d/%d)", c.Marker, c.Rank+1, c.Markers),
	}

	if len(c.Locked) > 0 {
		lines = append(lines, "locked: "+strings.Join(c.Locked, ", "))
	}

	return lines
}

// Render frames the card in a box cols columns wide with every row centered.
// Rows wider than the box are cut with an ellipsis.
func (c StatusCard) Render(cols int) string {
	lines := c.Lines()

	if plainCards.Load() || cols < minCardWidth {
		return strings.Join(lines, "\n")
	}

	inner := cols - 2
	rows := make([]string, 0, len(lines)+2)

	rows = append(rows, cardTopLeft+strings.Repeat(cardTop, inner)+cardTopRight)

	for _, l := range lines {
		rows = append(rows, cardSide+center(l, inner)+cardSide)
	}

	rows = append(rows, cardBottomLeft+strings.Repeat(cardBottom, inner)+cardBottomRight)

	return strings.Join(rows, "\n")
}

// RenderAutoWidth renders the card at the width of the controlling terminal.
func (c StatusCard) RenderAutoWidth() string {
	return c.Render(terminalWidth())
}

// runeWidth counts East Asian wide and fullwidth runes as two columns.
func runeWidth(r rune) int {
	if !unicode.IsGraphic(r) {
		return 0
	}

	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}

	return n
}

func truncate(s string, cols int) string {
	var sb strings.Builder

	used := 0

	for _, r := range s {
		w := runeWidth(r)
		if used+w > cols-1 {
			break
		}

		sb.WriteRune(r)

		used += w
	}

	return sb.String() + ellipsis
}

func center(s string, cols int) string {
	if displayWidth(s) > cols {
		s = truncate(s, cols)
	}

	diff := cols - displayWidth(s)
	left := diff / 2

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", diff-left)
}

func terminalWidth() int {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return DefaultTerminalWidth
	}

	defer tty.Close() //nolint:errcheck

	// Outputs: "rows columns"
	cmd := exec.Command("stty", "size")
	cmd.Stdin = tty

	out, err := cmd.Output()
	if err != nil {
		return DefaultTerminalWidth
	}

	cols, err := parseColumns(string(out))
	if err != nil || cols <= 0 {
		return DefaultTerminalWidth
	}

	return cols
}

func parseColumns(size string) (int, error) {
	fields := strings.Fields(size)
	if len(fields) != 2 { //nolint:mnd
		return 0, fmt.Errorf("%w: %q", errTerminalSize, size)
	}

	return strconv.Atoi(fields[1])
}
