// 居家访视排程服务
// 主程序入口

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paiban/homevisit/internal/config"
	"github.com/paiban/homevisit/internal/geocoding"
	"github.com/paiban/homevisit/internal/metrics"
	"github.com/paiban/homevisit/pkg/frequency"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/planning"
	"github.com/paiban/homevisit/pkg/routing"
	"github.com/paiban/homevisit/pkg/validator"
	"github.com/spf13/cobra"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "homevisit",
		Short:        "居家访视排程与路线优化引擎",
		Version:      fmt.Sprintf("%s (build %s, %s)", Version, BuildTime, GitCommit),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "环境变量文件，不存在时忽略")

	root.AddCommand(serveCmd(&envFile))
	root.AddCommand(migrateCmd(&envFile))
	root.AddCommand(seedCmd(&envFile))
	root.AddCommand(planCmd(&envFile))
	root.AddCommand(routeCmd(&envFile))
	return root
}

// loadConfig 读取并校验配置，同时初始化日志
func loadConfig(envFile string) (*config.Config, planning.Settings, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, planning.Settings{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, planning.Settings{}, fmt.Errorf("配置无效: %w", err)
	}
	logger.Init(cfg.Logger())

	settings, err := cfg.Planning.Settings()
	if err != nil {
		return nil, planning.Settings{}, err
	}
	return cfg, settings, nil
}

// openGeocoder 按配置组装地理编码器，geocoder 和 closer 都可能为空
// 未启用占位编码器时，缺少坐标的患者会以 GEOCODING_FAILED 排除出路线
func openGeocoder(cfg config.GeocodingConfig) (routing.Geocoder, io.Closer, error) {
	if !cfg.Placeholder {
		logger.Info().Msg("未配置地理编码服务，缺少坐标的患者不进入路线优化")
		return nil, nil, nil
	}
	logger.Warn().
		Float64("center_lat", cfg.CenterLat).
		Float64("center_lng", cfg.CenterLng).
		Msg("已启用占位地理编码器，坐标由地址哈希生成，不代表真实位置")

	base := geocoding.NewHashGeocoder(model.Coordinate{Lat: cfg.CenterLat, Lng: cfg.CenterLng}, cfg.SpreadDegrees)
	if cfg.CachePath == "" {
		return base, nil, nil
	}
	cache, err := geocoding.OpenSQLiteCache(cfg.CachePath, base)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

// newPlanner 组装排程引擎
func newPlanner(deps planning.Dependencies, settings planning.Settings, registry *metrics.Registry) *planning.Planner {
	deps.Frequency = frequency.NewCalculator()
	deps.Validator = validator.NewEntityValidator(validator.DefaultEntityConfig())
	deps.Logger = logger.NewPlannerLogger()
	if registry != nil {
		deps.Recorder = registry
	}
	return planning.NewPlanner(deps, settings)
}
