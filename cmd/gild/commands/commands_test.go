package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/cmd/gild/commands"
	"go.trai.ch/gild/internal/app"
	"go.trai.ch/gild/internal/build"
	"go.trai.ch/gild/internal/core/domain"
)

type mockApp struct {
	runFunc  func(ctx context.Context, targets []string, opts app.Options) error
	listFunc func(ctx context.Context, opts app.Options, w io.Writer) error
}

func (m *mockApp) Run(ctx context.Context, targets []string, opts app.Options) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, targets, opts)
	}
	return nil
}

func (m *mockApp) List(ctx context.Context, opts app.Options, w io.Writer) error {
	if m.listFunc != nil {
		return m.listFunc(ctx, opts, w)
	}
	return nil
}

func TestCommands_Root(t *testing.T) {
	t.Run("runs tasks given as arguments", func(t *testing.T) {
		var capturedTargets []string
		var capturedOpts app.Options

		mock := &mockApp{
			runFunc: func(_ context.Context, targets []string, opts app.Options) error {
				capturedTargets = targets
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"clean", "build", "--env", "production", "-j", "2", "-c", "conf/gild.yaml"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"clean", "build"}, capturedTargets)
		assert.Equal(t, app.Options{ConfigPath: "conf/gild.yaml", Env: "production", Jobs: 2}, capturedOpts)
	})

	t.Run("runs the default task without arguments", func(t *testing.T) {
		called := false
		mock := &mockApp{
			runFunc: func(_ context.Context, targets []string, opts app.Options) error {
				called = true
				assert.Empty(t, targets)
				assert.Equal(t, domain.ConfigFileName, opts.ConfigPath)
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, called)
	})

	t.Run("environment defaults to GILD_ENV", func(t *testing.T) {
		t.Setenv(domain.EnvVar, "production")

		var env string
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, opts app.Options) error {
				env = opts.Env
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"build"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "production", env)
	})

	t.Run("json flag switches logging", func(t *testing.T) {
		var json []bool
		cli := commands.New(&mockApp{}, commands.WithJSONLogs(func(enable bool) {
			json = append(json, enable)
		}))
		cli.SetArgs([]string{"run", "build", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []bool{true}, json)
	})
}

func TestCommands_Run(t *testing.T) {
	t.Run("passes targets in order", func(t *testing.T) {
		var capturedTargets []string
		mock := &mockApp{
			runFunc: func(_ context.Context, targets []string, _ app.Options) error {
				capturedTargets = targets
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "styles", "js"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"styles", "js"}, capturedTargets)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, _ app.Options) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "build"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Tasks(t *testing.T) {
	mock := &mockApp{
		listFunc: func(_ context.Context, opts app.Options, w io.Writer) error {
			assert.Equal(t, "staging", opts.Env)
			_, err := io.WriteString(w, "task listing\n")
			return err
		},
	}

	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"tasks", "-e", "staging"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "task listing\n", buf.String())
}

func TestCommands_Tasks_RejectsArguments(t *testing.T) {
	cli := commands.New(&mockApp{})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"tasks", "build"})

	require.Error(t, cli.Execute(context.Background()))
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "gild version "+build.Version)
}
