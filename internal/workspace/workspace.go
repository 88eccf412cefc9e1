// Package workspace loads configuration and wires the case services on top of one database.
package workspace

import (
	"context"
	"github.com/myrjola/dfircase/internal/ai"
	"github.com/myrjola/dfircase/internal/analysis"
	"github.com/myrjola/dfircase/internal/casework"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/envstruct"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/report"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/sqlite"
	"log/slog"
)

type Config struct {
	// SQLiteURL is a database file path or ":memory:".
	SQLiteURL string `env:"DFIRCASE_SQLITE_URL" envDefault:"./dfircase.sqlite"`
	// Addr is the listen address of the web server.
	Addr string `env:"DFIRCASE_ADDR" envDefault:"localhost:4000"`
	// PprofAddr enables the pprof server when set.
	PprofAddr string `env:"DFIRCASE_PPROF_ADDR" envDefault:""`
	AI        ai.Config
}

// LoadConfig reads the configuration with lookupEnv, which has the signature of [os.LookupEnv].
func LoadConfig(lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return cfg, errors.Wrap(err, "populate config")
	}
	if err := envstruct.Populate(&cfg.AI, lookupEnv); err != nil {
		return cfg, errors.Wrap(err, "populate ai config")
	}
	return cfg, nil
}

// Workspace holds the services operating on one case database.
type Workspace struct {
	DB       *sqlite.Database
	Steps    *catalog.Catalog
	Cases    *repositories.CaseRepository
	Editor   *casework.Editor
	AI       *ai.Client
	Exporter *report.Exporter
	Analyses *analysis.Tracker
	logger   *slog.Logger
}

// Open connects to the database and starts the background analysis tracker. Close releases both.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Workspace, error) {
	steps, err := catalog.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load step catalog")
	}
	db, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database", slog.String("url", cfg.SQLiteURL))
	}

	cases := repositories.NewCaseRepository(db, logger)
	client := ai.NewClient(cfg.AI, steps, logger)
	w := &Workspace{
		DB:       db,
		Steps:    steps,
		Cases:    cases,
		Editor:   casework.NewEditor(cases, steps, logger),
		AI:       client,
		Exporter: report.NewExporter(cases, steps, client, logger),
		Analyses: analysis.NewTracker(logger),
		logger:   logger.With("source", "workspace.Workspace"),
	}
	go w.Analyses.Run(context.WithoutCancel(ctx))

	logger.LogAttrs(ctx, slog.LevelDebug, "workspace opened",
		slog.String("url", cfg.SQLiteURL), slog.Bool("ai_configured", cfg.AI.APIKey != ""))
	return w, nil
}

// StartAnalysis analyzes the case in the background. The outcome is available from Analyses.
func (w *Workspace) StartAnalysis(ctx context.Context, id string) error {
	if _, err := w.Cases.Get(ctx, id); err != nil {
		return errors.Wrap(err, "get case")
	}
	err := w.Analyses.Start(id, func(ctx context.Context) (models.AIReport, error) {
		return w.Exporter.Analyze(ctx, id)
	})
	if err != nil {
		return errors.Wrap(err, "start analysis")
	}
	w.logger.LogAttrs(ctx, slog.LevelInfo, "analysis started", slog.String("id", id))
	return nil
}

// Close stops the analysis tracker, cancelling and waiting for running analyses, and closes the database.
func (w *Workspace) Close() error {
	w.Analyses.Stop()
	if err := w.DB.Close(); err != nil {
		return errors.Wrap(err, "close database")
	}
	return nil
}
