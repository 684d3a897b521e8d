// cmd/assess/main.go
//
// assess is the command-line companion to the API server: it runs a full
// waste/stock-out assessment against the local dataset and writes the CSV
// report, without needing the HTTP surface. It can also pull shared dataset
// files from a Google Drive folder.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/wastewatch-ai/wastewatch-go/internal/config"
	"github.com/wastewatch-ai/wastewatch-go/internal/dataset"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/drive"
	"github.com/wastewatch-ai/wastewatch-go/internal/forecast"
	"github.com/wastewatch-ai/wastewatch-go/internal/repository"
	"github.com/wastewatch-ai/wastewatch-go/internal/repository/postgres"
	"github.com/wastewatch-ai/wastewatch-go/internal/risk"
	"github.com/wastewatch-ai/wastewatch-go/internal/service"
	"github.com/wastewatch-ai/wastewatch-go/internal/storage"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "assess",
		Usage: "run restaurant waste and stock-out assessments from the command line",
		Commands: []*cli.Command{
			runCommand(),
			fetchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a full assessment and write the CSV report",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "items",
				Usage: "item names to assess (defaults to configured items, then every dataset item)",
			},
			&cli.Float64Flag{
				Name:  "buffer",
				Usage: "safety buffer percent applied on top of predicted demand",
				Value: -1, // sentinel: fall back to the configured default
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "directory for the CSV report (defaults to the configured report dir)",
			},
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "postgres URL; when set the run is persisted",
				EnvVars: []string{"ASSESS_DB_URL"},
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "also upload the report to the configured object storage",
			},
		},
		Action: runAssessment,
	}
}

func runAssessment(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	buffer := c.Float64("buffer")
	if buffer < 0 {
		buffer = cfg.Risk.SafetyBufferPercent
	}

	var repo repository.AssessmentRepository
	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.NewDBFromURL(dbURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.EnsureSchema(c.Context, db); err != nil {
			return err
		}
		repo = postgres.NewAssessmentRepository(db)
	}

	loader := dataset.NewLoader(cfg.App.DataDirs, cfg.App.DatasetFilename)
	forecaster := forecast.NewClient(cfg.Forecast)
	svc := service.NewAssessmentService(loader, forecaster, risk.NewAssessor(), repo, nil, cfg.App.DefaultItems)

	run, err := svc.RunFullAssessment(c.Context, c.StringSlice("items"), buffer)
	if err != nil {
		return err
	}

	reportDir := c.String("output")
	if reportDir == "" {
		reportDir = cfg.App.ReportDir
	}
	exporter := dataset.NewExporter(reportDir)

	path, err := exporter.ExportFile(run)
	if err != nil {
		return err
	}

	if c.Bool("upload") {
		if !cfg.Storage.Enabled {
			return fmt.Errorf("--upload requires STORAGE_ENABLED=true")
		}
		store, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    true,
		})
		if err != nil {
			return err
		}
		key, err := exporter.WithObjectStorage(store, cfg.Storage.Prefix).Upload(c.Context, run)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "uploaded: %s\n", key)
	}

	printRunSummary(c, run, path)

	return nil
}

func printRunSummary(c *cli.Context, run *domain.AssessmentRun, path string) {
	w := c.App.Writer

	fmt.Fprintf(w, "assessed %d item(s), %d need restocking, average risk score %.1f\n",
		run.Summary.TotalItems, run.Summary.ItemsNeedingRestock, run.Summary.AverageRiskScore)

	for _, plan := range run.Plans {
		fmt.Fprintf(w, "  %-20s %-8s score %5.1f  %s\n",
			plan.ItemName, plan.RiskLevel, plan.RiskScore, plan.RecommendedAction)
	}
	for item, reason := range run.ForecastingErrors {
		fmt.Fprintf(w, "  %-20s skipped: %s\n", item, reason)
	}

	fmt.Fprintf(w, "report: %s\n", path)
	if run.ID != 0 {
		fmt.Fprintf(w, "persisted as run %d\n", run.ID)
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "download dataset CSVs from a shared Google Drive folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "credentials-file",
				Usage:   "path to a service-account JSON key",
				EnvVars: []string{"DRIVE_CREDENTIALS_FILE"},
			},
			&cli.StringFlag{
				Name:    "folder",
				Usage:   "drive folder path, e.g. datasets/restaurant",
				EnvVars: []string{"DRIVE_FOLDER_PATH"},
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "destination directory (defaults to the first configured data dir)",
			},
		},
		Action: fetchDatasets,
	}
}

func fetchDatasets(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	credsFile := c.String("credentials-file")
	if credsFile == "" {
		credsFile = cfg.Drive.CredentialsFile
	}
	if credsFile == "" {
		return fmt.Errorf("a credentials file is required (--credentials-file or DRIVE_CREDENTIALS_FILE)")
	}

	creds, err := os.ReadFile(credsFile)
	if err != nil {
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	svc, err := drive.NewService(string(creds))
	if err != nil {
		return err
	}

	folder := c.String("folder")
	if folder == "" {
		folder = cfg.Drive.FolderPath
	}

	dest := c.String("dest")
	if dest == "" {
		if len(cfg.App.DataDirs) == 0 {
			return fmt.Errorf("no destination directory: pass --dest or configure APP_DATA_DIRS")
		}
		dest = cfg.App.DataDirs[0]
	}

	count, err := svc.SyncDatasets(folder, dest)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "synced %d file(s) to %s\n", count, dest)

	return nil
}
