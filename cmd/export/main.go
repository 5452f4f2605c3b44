package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/okian/badgeboard/internal/config"
	"github.com/okian/badgeboard/internal/exporter"
	"github.com/okian/badgeboard/pkg/logger"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(exitFailure)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "export",
		Usage:     "export the badge timeline as CSV or XLSX",
		ArgsUsage: "OUTPUT",
		Writer:    stdout,
		ErrWriter: stderr,
		// main owns the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "source JSONL file (default: configured data file, else the bundled example)"},
			&cli.StringFlag{Name: "group-by", Value: "trainer", Usage: "group badges by `trainer` or deck"},
			&cli.IntFlag{Name: "season", Usage: "limit to the season ending in `YEAR` (2024 is July 2023 to June 2024)"},
			&cli.StringFlag{Name: "start-date", Usage: "keep badges on or after this ISO `DATE`"},
			&cli.StringFlag{Name: "end-date", Usage: "keep badges before this ISO `DATE`"},
			&cli.BoolFlag{Name: "cumulative", Usage: "pivot into one row per date and one column per entity"},
			&cli.StringFlag{Name: "value", Value: "score", Usage: "pivoted value: score, badges, points or rank"},
			&cli.StringFlag{Name: "format", Usage: "csv or xlsx (default: from the output extension)"},
			&cli.StringFlag{Name: "image-map", Usage: "JSON `FILE` mapping entity names to image URLs"},
			&cli.StringFlag{Name: "chart", Usage: "also draw the cumulative table as a PNG `FILE`"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log progress to stderr"},
		},
		Action: func(c *cli.Context) error {
			return export(c, stdout, stderr)
		},
	}
}

func export(c *cli.Context, stdout, stderr io.Writer) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one OUTPUT path is required", exitUsage)
	}
	if err := logger.InitWith(stderr, logger.FormatText); err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	settings, err := config.Load(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	input := c.String("input")
	if input == "" {
		input = settings.DataPath()
	}

	cfg := exporter.Config{
		Input:           input,
		Output:          c.Args().First(),
		GroupBy:         c.String("group-by"),
		Season:          c.Int("season"),
		StartDate:       c.String("start-date"),
		EndDate:         c.String("end-date"),
		Cumulative:      c.Bool("cumulative"),
		Value:           c.String("value"),
		Format:          c.String("format"),
		ImageMap:        c.String("image-map"),
		Chart:           c.String("chart"),
		IconURLTemplate: settings.IconURLTemplate,
		TierWeights:     settings.TierWeights,
	}
	stats, err := exporter.Run(c.Context, cfg, logger.Named("export"))
	if err != nil {
		code := exitFailure
		if errors.Is(err, exporter.ErrUsage) {
			code = exitUsage
		}
		return cli.Exit(fmt.Sprintf("export: %v", err), code)
	}
	exporter.PrintSummary(stdout, stats)
	return nil
}
