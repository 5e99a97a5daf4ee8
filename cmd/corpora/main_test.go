package main

import (
	"testing"

	"github.com/poiesic/corpora/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
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
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			assert.NoError(t, newApp().Run([]string{"test", "--log-level", level}))
		}
	})

	t.Run("levels are case insensitive", func(t *testing.T) {
		assert.NoError(t, newApp().Run([]string{"test", "--log-level", "DEBUG"}))
	})

	t.Run("invalid level rejected", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestWeightFlagDefaults(t *testing.T) {
	defaults := search.DefaultWeights()
	want := map[string]float64{
		"weight-vector":    defaults.Vector,
		"weight-lexical":   defaults.Lexical,
		"weight-title":     defaults.Title,
		"weight-concept":   defaults.Concept,
		"weight-thesaurus": defaults.Thesaurus,
	}

	app := &cli.App{
		Name: "corpora",
		Commands: []*cli.Command{
			{
				Name: "search",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "weight-vector", Value: 0.25},
					&cli.Float64Flag{Name: "weight-lexical", Value: 0.25},
					&cli.Float64Flag{Name: "weight-title", Value: 0.20},
					&cli.Float64Flag{Name: "weight-concept", Value: 0.20},
					&cli.Float64Flag{Name: "weight-thesaurus", Value: 0.10},
				},
			},
		},
	}

	for _, flag := range app.Commands[0].Flags {
		f, ok := flag.(*cli.Float64Flag)
		require.True(t, ok)
		assert.Equal(t, want[f.Name], f.Value, f.Name)
	}
}

func TestIngestCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "corpora",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Required: true,
					},
				},
			},
		},
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		err := app.Run([]string{"corpora", "ingest", "doc.txt"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})
}
