package example

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pluto-org-co/afqhcp/cmd/afqhcp/config"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const OutputFlag = "output"

// Writes the example configuration to filename, an existing file is kept.
func WriteExample(filename string) (written bool, err error) {
	contents, err := yaml.Marshal(config.Example)
	if err != nil {
		return false, fmt.Errorf("failed to marshal configuration: %w", err)
	}

	_, err = os.Stat(filename)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to get file stat: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(filename), 0o755)
	if err != nil {
		return false, fmt.Errorf("failed to prepare configuration directory: %w", err)
	}

	err = os.WriteFile(filename, contents, 0o600)
	if err != nil {
		return false, fmt.Errorf("failed to write example configuration: %w", err)
	}
	return true, nil
}

func NewExampleCommand() (cmd *cli.Command) {
	return &cli.Command{
		Name:        "example-config",
		Description: "print the example configuration, or write it to a file when it does not exist yet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     OutputFlag,
				Usage:    "File receiving the configuration",
				OnlyOnce: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) (err error) {
			filename := c.String(OutputFlag)
			if filename == "" {
				contents, err := yaml.Marshal(config.Example)
				if err != nil {
					return fmt.Errorf("failed to marshal configuration: %w", err)
				}
				_, err = c.Root().Writer.Write(contents)
				return err
			}

			written, err := WriteExample(filename)
			if err != nil {
				return err
			}
			if written {
				slog.Info("Wrote configuration", "filename", filename)
			} else {
				slog.Info("Skipping configuration. Already exists", "filename", filename)
			}
			return nil
		},
	}
}

var ExampleCommand = NewExampleCommand()
