package example_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pluto-org-co/afqhcp/cmd/afqhcp/config"
	"github.com/pluto-org-co/afqhcp/cmd/afqhcp/example"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func Test_WriteExample(t *testing.T) {
	assertions := assert.New(t)

	filename := filepath.Join(t.TempDir(), "etc", "config.yaml")

	written, err := example.WriteExample(filename)
	if !assertions.Nil(err, "failed to write example") {
		return
	}
	assertions.True(written)

	cfg, err := config.Load(filename)
	if !assertions.Nil(err, "written example should load") {
		return
	}
	assertions.Equal(config.Example, cfg)

	err = os.WriteFile(filename, []byte("workers: 1\n"), 0o600)
	if !assertions.Nil(err) {
		return
	}
	written, err = example.WriteExample(filename)
	if !assertions.Nil(err, "failed to write example") {
		return
	}
	assertions.False(written, "existing configuration should be kept")

	contents, err := os.ReadFile(filename)
	if assertions.Nil(err) {
		assertions.Equal("workers: 1\n", string(contents))
	}
}

func Test_ExampleCommand(t *testing.T) {
	assertions := assert.New(t)

	var output bytes.Buffer
	root := &cli.Command{
		Name:     "afqhcp",
		Writer:   &output,
		Commands: []*cli.Command{example.NewExampleCommand()},
	}
	err := root.Run(context.TODO(), []string{"afqhcp", "example-config"})
	if !assertions.Nil(err, "failed to run command") {
		return
	}
	assertions.Contains(output.String(), "hcp-openaccess")
	assertions.Contains(output.String(), "{config}")
}
