package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/app"
	"github.com/comicbench/comicbench/internal/benchmark"
	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/generate"
	"github.com/comicbench/comicbench/internal/label"
	"github.com/comicbench/comicbench/internal/leaderboard"
	"github.com/comicbench/comicbench/internal/scrape"
	"github.com/comicbench/comicbench/internal/util"
)

func main() {
	cliApp := &cli.App{
		Name:  "comicbench",
		Usage: "benchmark how well vision models explain comics",
		Commands: []*cli.Command{
			newDownloadCommand(),
			newGenerateCommand(),
			newLabelCommand(),
			newBenchmarkCommand(),
			newLeaderboardCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "comicbench: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and the logger; commands that talk to
// providers additionally call app.Build.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newDownloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "download the comic corpus from the archive",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			scraper := scrape.NewScraper(cfg.Paths.CorpusDir, cfg.Paths.MetadataFile, logger)
			return scraper.Run(c.Context)
		},
	}
}

func newGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate candidate explanations for labeling",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "models", Usage: "models to run (default: phase1 roster)"},
			&cli.IntFlag{Name: "limit", Usage: "process at most N comics"},
			&cli.BoolFlag{Name: "no-skip", Usage: "regenerate existing explanations"},
			&cli.BoolFlag{Name: "stats", Usage: "print statistics and exit"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			container, err := app.Build(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			corpus, err := container.Corpus()
			if err != nil {
				return err
			}
			gen := generate.New(corpus, container.Runner, container.Models, container.Explanations, logger)

			if c.Bool("stats") {
				stats, err := gen.Statistics()
				if err != nil {
					return err
				}
				fmt.Printf("Total comics:             %d\n", stats.TotalComics)
				fmt.Printf("Comics with explanations: %d\n", stats.ComicsWithExplanations)
				for model, count := range stats.ModelCounts {
					fmt.Printf("  %-24s %d\n", model, count)
				}
				return nil
			}

			return gen.Run(c.Context, generate.Options{
				Models: c.StringSlice("models"),
				Limit:  c.Int("limit"),
				NoSkip: c.Bool("no-skip"),
			})
		},
	}
}

func newLabelCommand() *cli.Command {
	return &cli.Command{
		Name:  "label",
		Usage: "serve the ground-truth labeling web app",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides LABELING_ADDR)"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			container, err := app.Build(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			server, err := label.NewServer(container.Explanations, container.GroundTruth, cfg.Paths.CorpusDir, logger)
			if err != nil {
				return err
			}

			addr := cfg.Labeling.Addr
			if c.String("addr") != "" {
				addr = c.String("addr")
			}
			return server.Start(c.Context, addr)
		},
	}
}

func newBenchmarkCommand() *cli.Command {
	return &cli.Command{
		Name:  "benchmark",
		Usage: "run the scored benchmark against labeled comics",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "models", Usage: "models to test (default: benchmark roster)"},
			&cli.IntFlag{Name: "limit", Usage: "test at most N labeled comics"},
			&cli.StringSliceFlag{Name: "comics", Usage: "test only these comic IDs"},
			&cli.StringFlag{Name: "output-csv", Usage: "override CSV output path"},
			&cli.StringFlag{Name: "output-json", Usage: "override detailed JSON output path"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			container, err := app.Build(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			corpus, err := container.Corpus()
			if err != nil {
				return err
			}
			j, err := container.Judge()
			if err != nil {
				return err
			}

			b := benchmark.New(corpus, container.Runner, container.Models, j, container.GroundTruth, logger)
			report, err := b.Run(c.Context, benchmark.Options{
				Models: c.StringSlice("models"),
				Limit:  c.Int("limit"),
				Comics: c.StringSlice("comics"),
			})
			if err != nil {
				return err
			}

			csvPath := cfg.Paths.ResultsCSV
			if c.String("output-csv") != "" {
				csvPath = c.String("output-csv")
			}
			detailsPath := cfg.Paths.DetailsJSON
			if c.String("output-json") != "" {
				detailsPath = c.String("output-json")
			}
			if err := benchmark.SaveReport(report, container.Models, detailsPath, csvPath); err != nil {
				return err
			}

			if err := benchmark.WriteSummary(os.Stdout, report); err != nil {
				return err
			}
			fmt.Printf("\nDetailed results: %s\nCSV results:      %s\n", detailsPath, csvPath)
			return nil
		},
	}
}

func newLeaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "render the static leaderboard page from benchmark results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Usage: "benchmark CSV to read (overrides BENCHMARK_CSV)"},
			&cli.StringFlag{Name: "output", Usage: "HTML file to write (overrides LEADERBOARD_FILE)"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			csvPath := cfg.Paths.ResultsCSV
			if c.String("input") != "" {
				csvPath = c.String("input")
			}
			outPath := cfg.Paths.Leaderboard
			if c.String("output") != "" {
				outPath = c.String("output")
			}
			return leaderboard.Generate(csvPath, outPath, logger)
		},
	}
}
