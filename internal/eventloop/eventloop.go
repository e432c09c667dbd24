// Package eventloop drives a tea.Model without a terminal.
//
// Commands run one at a time on the calling goroutine and their messages are
// delivered in FIFO order, so a model behaves exactly as it does under
// tea.Program minus rendering and input. The CLI uses it for non-interactive
// output and tests use it to run job sequences to completion.
package eventloop

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
)

// ErrStepLimit is returned when the model keeps producing messages past the
// configured limit.
var ErrStepLimit = errors.New("event loop step limit reached")

// Options tunes Run.
type Options struct {
	// MaxSteps bounds the number of messages delivered. Zero means no bound.
	MaxSteps int

	// Observe, when set, sees every message before the model does.
	Observe func(tea.Msg)
}

// Run delivers the model's Init command and cmds, then every message they
// produce, until the queue drains, a tea.QuitMsg arrives or ctx is done.
func Run(ctx context.Context, model tea.Model, cmds ...tea.Cmd) (tea.Model, error) {
	return RunWithOptions(ctx, model, Options{}, cmds...)
}

// RunWithOptions is Run with explicit options.
func RunWithOptions(ctx context.Context, model tea.Model, opts Options, cmds ...tea.Cmd) (tea.Model, error) {
	queue := make([]tea.Cmd, 0, len(cmds)+1)
	queue = append(queue, model.Init())
	queue = append(queue, cmds...)

	steps := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return model, err
		}

		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}

		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			return model, nil
		}

		if opts.MaxSteps > 0 && steps >= opts.MaxSteps {
			return model, ErrStepLimit
		}
		steps++

		if opts.Observe != nil {
			opts.Observe(msg)
		}
		var next tea.Cmd
		model, next = model.Update(msg)
		queue = append(queue, next)
	}
	return model, nil
}

// Immediate is a ticker that fires at once, for driving polling loops
// without waiting.
func Immediate(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	return func() tea.Msg { return fn(time.Now()) }
}
