package actuator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is one external program invocation.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandBuilder returns the candidate commands that set a level, in order
// of preference.
type CommandBuilder func(percent int) []Command

// Native sets levels by running the platform's command line tools.
// The first candidate command that succeeds wins.
type Native struct {
	run        Runner
	volume     CommandBuilder
	brightness CommandBuilder
}

// NewNative creates a Native controller for the current platform.
func NewNative(run Runner) *Native {
	if run == nil {
		run = ExecRunner
	}
	return &Native{
		run:        run,
		volume:     volumeCommands,
		brightness: brightnessCommands,
	}
}

func (n *Native) SetVolumePercent(ctx context.Context, percent int) error {
	return n.apply(ctx, "volume", n.volume(Clamp(percent)))
}

func (n *Native) SetBrightnessPercent(ctx context.Context, percent int) error {
	return n.apply(ctx, "brightness", n.brightness(Clamp(percent)))
}

func (n *Native) apply(ctx context.Context, what string, candidates []Command) error {
	if len(candidates) == 0 {
		return fmt.Errorf("set %s: %w", what, ErrUnsupported)
	}

	var errs []error
	for _, c := range candidates {
		out, err := n.run(ctx, c.Name, c.Args...)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("set %s: %w", what, ctx.Err())
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		errs = append(errs, fmt.Errorf("%s: %w", c, err))
	}
	return fmt.Errorf("set %s: %w", what, errors.Join(errs...))
}
