package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/cosmicds/markerflow/cli"
	"github.com/cosmicds/markerflow/progress"
	"github.com/cosmicds/markerflow/stage"
	"github.com/cosmicds/markerflow/statemachine"
	"github.com/cosmicds/markerflow/stepper"
	"github.com/cosmicds/markerflow/visualizer"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var walkSession string

var walkCmd = &cobra.Command{
	Use:   "walk <stage|path>",
	Short: "Walk a stage interactively",
	Long: `Walk a stage interactively: advance through markers, answer the
questions that gate them and jump between steps.

With --session the position and answered questions are loaded from the
file at start and saved to it on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runWalk,
}

func init() {
	walkCmd.Flags().StringVarP(&walkSession, "session", "s", "", "Session file to resume from and save to")
}

// session is the on-disk form of a walk.
type session struct {
	Snapshot stage.Snapshot `json:"snapshot"`
	Answered []string       `json:"answered"`
}

const (
	actionAdvance = "Advance"
	actionAnswer  = "Answer questions"
	actionStep    = "Go to step"
	actionDiagram = "Show diagram"
	actionSave    = "Save session"
	actionQuit    = "Quit"
)

type walker struct {
	cfg    *stage.Config
	stage  *stage.Stage
	store  *progress.Store
	model  *stepper.Model
	prompt *cli.Prompter
}

func runWalk(cmd *cobra.Command, args []string) error {
	cfg, err := stage.LoadConfig(args[0])
	if err != nil {
		return err
	}

	w := &walker{
		cfg:    cfg,
		store:  progress.NewStore(),
		prompt: cli.NewPrompter(),
	}

	s, err := stage.New(cfg, w.store, nil,
		stage.WithEffect("announce_step", w.entersStep, w.announceStep),
	)
	if err != nil {
		return err
	}

	w.stage = s
	w.model, _ = s.Stepper().(*stepper.Model)

	ctx := s.Context(cmd.Context())

	if err := w.load(ctx); err != nil {
		return err
	}

	err = w.loop(ctx)

	if saveErr := w.save(); saveErr != nil {
		return errors.Join(err, saveErr)
	}

	return err
}

func (w *walker) loop(ctx context.Context) error {
	actions := []string{actionAdvance, actionAnswer, actionStep, actionDiagram, actionSave, actionQuit}

	for {
		fmt.Println(w.status().RenderAutoWidth())

		_, action, err := w.prompt.Select("What next?", actions)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}

			return err
		}

		switch action {
		case actionAdvance:
			if !w.stage.Advance(ctx) {
				if w.stage.Complete() {
					fmt.Println("This stage is complete.")
				} else {
					fmt.Println("Locked: answer the questions first.")
				}
			}
		case actionAnswer:
			err = w.answer()
		case actionStep:
			err = w.goToStep()
		case actionDiagram:
			err = w.diagram()
		case actionSave:
			err = w.save()
		case actionQuit:
			return nil
		}

		if err != nil && !errors.Is(err, promptui.ErrInterrupt) {
			return err
		}
	}
}

func (w *walker) status() cli.StatusCard {
	current := w.stage.Current()

	return cli.StatusCard{
		Title:     w.stage.Title(),
		Steps:     w.stage.StepTitles(),
		Completed: w.model.Completed(),
		Step:      w.model.StepIndex(),
		Marker:    current.Name(),
		Rank:      current.Rank(),
		Markers:   w.stage.Sequence().Len(),
		Locked:    w.stage.Locked(),
	}
}

// open returns the gate questions not answered yet.
func (w *walker) open() []string {
	var out []string

	for _, g := range w.cfg.Gates {
		for _, q := range g.Questions {
			if !w.store.QuestionCompleted(q) && !slices.Contains(out, q) {
				out = append(out, q)
			}
		}
	}

	return out
}

func (w *walker) answer() error {
	open := w.open()
	if len(open) == 0 {
		fmt.Println("No open questions.")

		return nil
	}

	picked, err := w.prompt.MultiSelect("Mark answered", open...)
	if err != nil {
		return err
	}

	for _, q := range picked {
		w.store.Complete(q)
	}

	return nil
}

func (w *walker) goToStep() error {
	n := w.model.Len()

	for i, title := range w.stage.StepTitles() {
		fmt.Printf("  %d. %s\n", i+1, title)
	}

	step, err := w.prompt.Int(fmt.Sprintf("Step (1-%d)", n), 1, n)
	if err != nil {
		return err
	}

	// Same path as a click in the stepper.
	w.model.SetStepIndex(step - 1)

	return nil
}

func (w *walker) diagram() error {
	out, err := visualizer.GenerateMermaidWithOptions(w.cfg,
		visualizer.DefaultOptions().WithCurrent(w.stage.Current().Name()))
	if err != nil {
		return err
	}

	fmt.Print(out)

	return nil
}

func (w *walker) entersStep(change statemachine.Change) bool {
	return change.Advancing() && w.stage.Steps().Contains(change.New)
}

func (w *walker) announceStep(_ context.Context) error {
	titles := w.stage.StepTitles()

	if idx := w.model.StepIndex(); idx >= 0 && idx < len(titles) {
		fmt.Println("Now starting: " + titles[idx])
	}

	return nil
}

func (w *walker) load(ctx context.Context) error {
	if walkSession == "" {
		return nil
	}

	data, err := os.ReadFile(walkSession)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	var sess session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	// Answers first, so gates reflect them once the marker is restored.
	for _, q := range sess.Answered {
		w.store.Complete(q)
	}

	return w.stage.Restore(ctx, sess.Snapshot)
}

func (w *walker) save() error {
	if walkSession == "" {
		return nil
	}

	data, err := json.MarshalIndent(session{
		Snapshot: w.stage.Snapshot(),
		Answered: w.store.Completed(),
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(walkSession, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}
