package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/paiban/homevisit/internal/config"
	"github.com/paiban/homevisit/internal/database"
	"github.com/paiban/homevisit/internal/handler"
	"github.com/paiban/homevisit/internal/metrics"
	"github.com/paiban/homevisit/internal/middleware"
	"github.com/paiban/homevisit/internal/repository"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/planning"
	"github.com/spf13/cobra"
)

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, settings, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, settings)
		},
	}
}

func migrateCmd(envFile *string) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			db, err := database.New(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if down {
				return db.Rollback(cmd.Context())
			}
			return db.Migrate(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "回滚最近一次迁移")
	return cmd
}

// seedCmd 把 JSON 快照中的患者和专业人员导入数据库
func seedCmd(envFile *string) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "从快照导入患者与专业人员",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			snap, err := repository.ReadSnapshotFile(input)
			if err != nil {
				return err
			}

			db, err := database.New(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}

			var res repository.SeedResult
			err = db.Transaction(cmd.Context(), func(tx *sql.Tx) error {
				var err error
				res, err = repository.Seed(cmd.Context(), snap,
					repository.NewPatientRepository(tx), repository.NewProfessionalRepository(tx))
				return err
			})
			if err != nil {
				return err
			}

			logger.Info().
				Int("patients_created", res.PatientsCreated).
				Int("patients_skipped", res.PatientsSkipped).
				Int("professionals_created", res.ProfessionalsCreated).
				Int("professionals_skipped", res.ProfessionalsSkipped).
				Msg("快照导入完成")
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "快照文件（patients/professionals）")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, settings planning.Settings) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	geocoder, closer, err := openGeocoder(cfg.Geocoding)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	registry := metrics.Default()
	planner := newPlanner(planning.Dependencies{
		Patients:      repository.NewPatientRepository(db),
		Professionals: repository.NewProfessionalRepository(db),
		Journeys:      repository.NewJourneyRepository(db),
		Geocoder:      geocoder,
	}, settings, registry)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID(), middleware.AccessLog(registry), middleware.Recover())

	h := handler.NewHandler(planner, handler.Options{
		Saver:   repository.NewPlanWriter(db),
		Health:  db,
		Timeout: cfg.Planning.Timeout,
		Version: Version,
	})
	h.RegisterRoutes(e)
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(registry.Handler()))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
	}

	logger.Info().Msg("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}

	logger.Info().Msg("服务器已关闭")
	return nil
}
