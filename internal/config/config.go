// Package config 提供配置管理
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/paiban/homevisit/pkg/geo"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/planning"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Planning  PlanningConfig  `mapstructure:"planning"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // 为空时开发环境用 console，其余用 json
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// PlanningConfig 排程引擎配置
type PlanningConfig struct {
	WorkStart              string        `mapstructure:"work_start"`
	WorkEnd                string        `mapstructure:"work_end"`
	VisitDurationMinutes   int           `mapstructure:"visit_duration_minutes"`
	TravelBufferMinutes    int           `mapstructure:"travel_buffer_minutes"`
	DefaultMaxVisitsPerDay int           `mapstructure:"default_max_visits_per_day"`
	Timezone               string        `mapstructure:"timezone"`
	Workers                int           `mapstructure:"workers"` // 0 = CPU 核数
	UrgencyKeywords        []string      `mapstructure:"urgency_keywords"`
	DefaultTravelMode      string        `mapstructure:"default_travel_mode"`
	RandomSeed             int64         `mapstructure:"random_seed"`
	Timeout                time.Duration `mapstructure:"timeout"`
}

// GeocodingConfig 地理编码配置
// 占位编码器按地址哈希生成中心点附近的坐标，只用于演示和离线测试
type GeocodingConfig struct {
	Placeholder   bool    `mapstructure:"placeholder"`
	CachePath     string  `mapstructure:"cache_path"` // 为空时不启用缓存
	CenterLat     float64 `mapstructure:"center_lat"`
	CenterLng     float64 `mapstructure:"center_lng"`
	SpreadDegrees float64 `mapstructure:"spread_degrees"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "homevisit")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 7012)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "homevisit")
	v.SetDefault("database.user", "homevisit")
	v.SetDefault("database.password", "homevisit")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	defaults := planning.DefaultSettings()
	v.SetDefault("planning.work_start", defaults.WorkStart)
	v.SetDefault("planning.work_end", defaults.WorkEnd)
	v.SetDefault("planning.visit_duration_minutes", defaults.VisitDurationMinutes)
	v.SetDefault("planning.travel_buffer_minutes", defaults.TravelBufferMinutes)
	v.SetDefault("planning.default_max_visits_per_day", defaults.DefaultMaxVisitsPerDay)
	v.SetDefault("planning.timezone", "UTC")
	v.SetDefault("planning.workers", 0)
	v.SetDefault("planning.urgency_keywords", defaults.UrgencyKeywords)
	v.SetDefault("planning.default_travel_mode", string(defaults.DefaultTravelMode))
	v.SetDefault("planning.random_seed", 0)
	v.SetDefault("planning.timeout", 30*time.Second)

	v.SetDefault("geocoding.placeholder", false)
	v.SetDefault("geocoding.cache_path", "")
	v.SetDefault("geocoding.center_lat", 4.6097)
	v.SetDefault("geocoding.center_lng", -74.0817)
	v.SetDefault("geocoding.spread_degrees", 0.15)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load 加载配置：先把 .env 载入进程环境，再由环境变量覆盖默认值
// 环境变量名为大写的分段键，如 PLANNING_WORK_START、DATABASE_HOST
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("端口 %d 无效", c.App.Port)
	}
	if _, err := c.Planning.Settings(); err != nil {
		return err
	}
	if c.Geocoding.SpreadDegrees < 0 {
		return fmt.Errorf("地理编码扩散范围不能为负: %v", c.Geocoding.SpreadDegrees)
	}
	if c.Geocoding.Placeholder && c.IsProduction() {
		return errors.New("生产环境不能启用占位地理编码器")
	}
	return nil
}

// Settings 转换为排程引擎参数
func (c PlanningConfig) Settings() (planning.Settings, error) {
	start, err := time.Parse("15:04", c.WorkStart)
	if err != nil {
		return planning.Settings{}, fmt.Errorf("工作开始时间 %q 格式错误: %w", c.WorkStart, err)
	}
	end, err := time.Parse("15:04", c.WorkEnd)
	if err != nil {
		return planning.Settings{}, fmt.Errorf("工作结束时间 %q 格式错误: %w", c.WorkEnd, err)
	}
	if !end.After(start) {
		return planning.Settings{}, fmt.Errorf("工作结束时间 %s 不晚于开始时间 %s", c.WorkEnd, c.WorkStart)
	}
	if c.VisitDurationMinutes <= 0 || c.TravelBufferMinutes < 0 || c.DefaultMaxVisitsPerDay <= 0 {
		return planning.Settings{}, errors.New("访视时长与每日上限必须为正数")
	}
	mode := model.TravelMode(strings.ToUpper(c.DefaultTravelMode))
	if !geo.IsKnownMode(mode) {
		return planning.Settings{}, fmt.Errorf("未知出行方式 %q", c.DefaultTravelMode)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return planning.Settings{}, fmt.Errorf("时区 %q 无效: %w", c.Timezone, err)
	}

	return planning.Settings{
		WorkStart:              c.WorkStart,
		WorkEnd:                c.WorkEnd,
		VisitDurationMinutes:   c.VisitDurationMinutes,
		TravelBufferMinutes:    c.TravelBufferMinutes,
		DefaultMaxVisitsPerDay: c.DefaultMaxVisitsPerDay,
		Location:               loc,
		Workers:                c.Workers,
		UrgencyKeywords:        c.UrgencyKeywords,
		DefaultTravelMode:      mode,
		RandomSeed:             c.RandomSeed,
	}, nil
}

// Logger 返回日志配置
func (c *Config) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.App.LogLevel
	cfg.Format = c.App.LogFormat
	if cfg.Format == "" {
		cfg.Format = "json"
		if c.IsDevelopment() {
			cfg.Format = "console"
		}
	}
	return cfg
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
