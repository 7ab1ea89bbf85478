// Package cli holds the terminal prompts and status card of the lessonwalk demo.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

var (
	ErrEmptyInput   = errors.New("you must enter something")
	ErrOutOfRange   = errors.New("value out of range")
	errDoneSelected = errors.New("done")
	errTerminalSize = errors.New("unexpected terminal size")
)

const doneItem = "[Done]"

// Prompter runs interactive prompts against a pair of streams.
type Prompter struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// NewPrompter creates a prompter bound to the process terminal.
func NewPrompter() *Prompter {
	return &Prompter{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
}

func (p *Prompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     p.Stdin,
		Stdout:    p.Stdout,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (p *Prompter) String(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: ValidateNonEmpty,
		Stdin:    p.Stdin,
		Stdout:   p.Stdout,
	}

	return prompt.Run()
}

// Int prompts for an integer in [lo, hi].
func (p *Prompter) Int(label string, lo, hi int) (int, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: ValidateIntRange(lo, hi),
		Stdin:    p.Stdin,
		Stdout:   p.Stdout,
	}

	txt, err := prompt.Run()
	if err != nil {
		return 0, err
	}

	val, err := strconv.Atoi(strings.TrimSpace(txt))
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}

	return val, nil
}

// Select prompts for one of items and returns its index and value.
func (p *Prompter) Select(label string, items []string) (int, string, error) {
	sel := &promptui.Select{
		Label:  label,
		Items:  items,
		Size:   max(len(items), 1),
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}

	return sel.Run()
}

// MultiSelect lets the user pick any number of choices, one at a time,
// until they pick [Done] or nothing is left. The picks are returned in the
// order of choices.
func (p *Prompter) MultiSelect(label string, choices ...string) ([]string, error) {
	remaining := uniqueSorted(choices)
	picked := make(map[string]bool, len(remaining))

	for len(remaining) > 0 {
		_, value, err := p.Select(label, append([]string{doneItem}, remaining...))
		if err != nil {
			return nil, err
		}

		remaining, err = pick(remaining, picked, value)
		if errors.Is(err, errDoneSelected) {
			break
		}
	}

	var out []string

	for _, c := range choices {
		if picked[c] {
			out = append(out, c)
			picked[c] = false
		}
	}

	return out, nil
}

// ValidateNonEmpty rejects blank input.
func ValidateNonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyInput
	}

	return nil
}

// ValidateIntRange returns a validator accepting integers in [lo, hi].
func ValidateIntRange(lo, hi int) func(string) error {
	return func(s string) error {
		val, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}

		if val < lo || val > hi {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, val, lo, hi)
		}

		return nil
	}
}
