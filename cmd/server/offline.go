package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paiban/homevisit/internal/repository"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/planning"
	"github.com/paiban/homevisit/pkg/routing"
	"github.com/paiban/homevisit/pkg/validator"
	"github.com/spf13/cobra"
)

// planCmd 基于 JSON 快照离线排程，不需要数据库
func planCmd(envFile *string) *cobra.Command {
	var (
		input   string
		output  string
		request model.PlanningRequest
		zones   []string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "对患者与专业人员快照离线生成访视计划",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, settings, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			request.ZoneIDs = zones
			if err := validator.NewRequestValidator().PlanningRequest(request); err != nil {
				return err
			}

			store, err := repository.LoadSnapshotFile(input)
			if err != nil {
				return err
			}
			geocoder, closer, err := openGeocoder(cfg.Geocoding)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			planner := newPlanner(planning.Dependencies{
				Patients:      store,
				Professionals: store,
				Journeys:      store,
				Geocoder:      geocoder,
			}, settings, nil)

			result, err := planner.GenerateVisitPlan(cmd.Context(), request)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), output, result)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "快照文件（patients/professionals/journeys）")
	f.StringVarP(&output, "output", "o", "", "结果输出文件，默认标准输出")
	f.StringVar(&request.StartDate, "start", "", "开始日期 YYYY-MM-DD")
	f.StringVar(&request.EndDate, "end", "", "结束日期 YYYY-MM-DD")
	f.StringSliceVar(&zones, "zones", nil, "只排这些区域")
	f.StringVar((*string)(&request.Strategy), "strategy", string(model.StrategyPriorityFirst), "PRIORITY_FIRST 或 LOAD_BALANCED")
	f.StringVar((*string)(&request.PriorityClass), "priority", string(model.PriorityAll), "ALL/HIGH/MEDIUM/LOW")
	f.IntVar(&request.MaxVisitsPerDay, "max-visits", 0, "每人每日访视上限，0 表示按专业人员设置")
	f.BoolVar(&request.AllowWeekends, "weekends", false, "允许周末排程")
	f.BoolVar(&request.OptimizeRoutes, "optimize", true, "优化每个行程的路线")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// routeResult route 子命令的输出
type routeResult struct {
	Route      *model.OptimizedRoute `json:"route"`
	Validation model.RouteValidation `json:"validation"`
}

// routeCmd 对单个行程的途经点离线排序
func routeCmd(envFile *string) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "route",
		Short: "优化单条路线并校验",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, settings, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("打开途经点文件失败: %w", err)
			}
			defer f.Close()

			var req model.RouteRequest
			if err := json.NewDecoder(f).Decode(&req); err != nil {
				return fmt.Errorf("解析路线请求失败: %w", err)
			}
			if err := validator.NewRequestValidator().RouteRequest(req); err != nil {
				return err
			}

			planner := newPlanner(planning.Dependencies{}, settings, nil)
			route, err := planner.OptimizeRoute(req.Waypoints, routing.Options{
				JourneyID:          req.JourneyID,
				RespectTimeWindows: req.RespectTimeWindows,
				TravelMode:         req.TravelMode,
				EstimatedStart:     req.EstimatedStart,
				Seed:               req.Seed,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), output, routeResult{Route: route, Validation: routing.ValidateRoute(route)})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "路线请求 JSON 文件")
	cmd.Flags().StringVarP(&output, "output", "o", "", "结果输出文件，默认标准输出")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func writeJSON(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建输出文件失败: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
