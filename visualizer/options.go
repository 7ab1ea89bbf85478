package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowSteps labels step markers with their stepper title
	ShowSteps bool

	// ShowGates labels edges into gated markers with the required questions
	ShowGates bool

	// Direction controls diagram flow: "LR" (left-right) or "TB" (top-down; "TD" is accepted)
	Direction string

	// Current highlights the learner's current marker
	Current string

	// Theme controls the color scheme: "default" or "dark"
	Theme string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowSteps: true,
		ShowGates: true,
		Direction: "LR",
		Theme:     "default",
	}
}

// WithShowSteps enables/disables step titles.
func (o Options) WithShowSteps(show bool) Options {
	o.ShowSteps = show

	return o
}

// WithShowGates enables/disables gate labels.
func (o Options) WithShowGates(show bool) Options {
	o.ShowGates = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithCurrent sets the marker to highlight.
func (o Options) WithCurrent(name string) Options {
	o.Current = name

	return o
}

// WithTheme sets the color theme.
func (o Options) WithTheme(theme string) Options {
	o.Theme = theme

	return o
}
