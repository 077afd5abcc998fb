package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/repository"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	"github.com/noah-isme/sma-substitution-api/pkg/config"
	"github.com/noah-isme/sma-substitution-api/pkg/database"
	"github.com/noah-isme/sma-substitution-api/pkg/logger"
)

// app holds what the commands share. The database is opened on first use.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	svc    *service.SubstitutionService
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "substitute-cli",
		Short: "Plan substitute cover from the command line",
		Long:  "Ranks cover candidates, fills a day's open lessons and exports cover sheets against the planning database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(slotsCmd(a))
	rootCmd.AddCommand(rankCmd(a))
	rootCmd.AddCommand(autoCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(tokenCmd(a))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger, err = logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

// service connects to postgres and builds the planning service. Ranking cache is not used here.
func (a *app) service() (*service.SubstitutionService, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	db, err := database.NewPostgres(a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.db = db
	a.svc = service.NewSubstitutionService(
		service.SubstitutionSources{
			Teachers:      repository.NewTeacherRepository(db),
			Classes:       repository.NewClassRepository(db),
			Lessons:       repository.NewLessonRepository(db),
			Overlays:      repository.NewCalendarOverlayRepository(db),
			Absences:      repository.NewAbsenceRepository(db),
			Substitutions: repository.NewSubstitutionRepository(db),
		},
		nil,
		nil,
		service.SubstitutionConfig{PeriodsPerDay: a.cfg.Substitution.PeriodsPerDay},
		validator.New(),
		a.logger,
	)
	return a.svc, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
