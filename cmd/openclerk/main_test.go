package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}

		err := app.Run([]string{"test", "--log-level", "DeBuG"})
		require.NoError(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}

		err := app.Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestReembedCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{
			{
				Name:   "reembed",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "batch-size", Value: 64},
					&cli.IntFlag{Name: "report-interval", Value: 100},
					&cli.IntFlag{Name: "max-retries", Value: 3},
					&cli.DurationFlag{Name: "retry-delay"},
				},
			},
		},
	}

	t.Run("rejects non-positive batch size", func(t *testing.T) {
		t.Setenv("STORE_PATH", t.TempDir())
		err := app.Run([]string{"test", "reembed", "--batch-size", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("rejects non-positive report interval", func(t *testing.T) {
		t.Setenv("STORE_PATH", t.TempDir())
		err := app.Run([]string{"test", "reembed", "--report-interval", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report-interval")
	})
}
