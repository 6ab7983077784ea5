// Copyright (C) 2025 ZedCloud Org.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package afq

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"
)

// Constructs the pipeline from a configuration file and exports all of its results
type Runner interface {
	Export(ctx context.Context, configPath string) (err error)
}

const ConfigPlaceholder = "{config}"

var DefaultCommand = []string{"pyAFQ", ConfigPlaceholder}

// Runs the pipeline as an external process
type Command struct {
	Argv []string
	Dir  string
	// Extra environment, appended to the current one
	Env []string
	// Time given to the process to exit after an interrupt before being killed
	GracePeriod time.Duration
	Logger      *slog.Logger
}

// Adapts an ordinary function into a Runner
type RunnerFunc func(ctx context.Context, configPath string) (err error)

func (f RunnerFunc) Export(ctx context.Context, configPath string) (err error) {
	return f(ctx, configPath)
}

var (
	_ Runner = (*Command)(nil)
	_ Runner = RunnerFunc(nil)
)

func NewCommand(argv []string, logger *slog.Logger) (c *Command) {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Command{
		Argv:        slices.Clone(argv),
		GracePeriod: 30 * time.Second,
		Logger:      logger,
	}
}

// Replaces the config placeholder, the path is appended when the placeholder is missing
func (c *Command) Args(configPath string) (args []string) {
	var replaced bool
	args = make([]string, 0, len(c.Argv)+1)
	for _, arg := range c.Argv {
		if strings.Contains(arg, ConfigPlaceholder) {
			arg = strings.ReplaceAll(arg, ConfigPlaceholder, configPath)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, configPath)
	}
	return args
}

func forward(wg *sync.WaitGroup, r io.Reader, logger *slog.Logger, stream string) {
	wg.Go(func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			logger.Info(scanner.Text(), "stream", stream)
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("failed to read pipeline output", "stream", stream, "error-msg", err)
			io.Copy(io.Discard, r)
		}
	})
}

func (c *Command) Export(ctx context.Context, configPath string) (err error) {
	args := c.Args(configPath)
	if len(args) == 0 || args[0] == "" {
		return errors.New("empty pipeline command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = c.GracePeriod

	// Pipes instead of files so WaitDelay also bounds descendants holding the output open
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	logger := c.Logger.With("command", args[0])

	var wg sync.WaitGroup
	forward(&wg, stdoutR, logger, "stdout")
	forward(&wg, stderrR, logger, "stderr")
	defer func() {
		stdoutW.Close()
		stderrW.Close()
		wg.Wait()
	}()

	logger.Info("Starting pipeline", "args", args[1:])

	start := time.Now()
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	err = cmd.Wait()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("pipeline interrupted: %w", errors.Join(ctx.Err(), err))
		}
		return fmt.Errorf("failed to run pipeline: %w", err)
	}

	logger.Info("Pipeline finished", "took", time.Since(start).Round(time.Second))
	return nil
}
