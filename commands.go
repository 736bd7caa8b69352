package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"wms-core/handlers"
	"wms-core/models"
	"wms-core/services"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP / WebSocket 서버 시작",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := services.LoadConfig()
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (기본: WMS_LISTEN_ADDR)")
	return cmd
}

func runServe(cfg services.Config) error {
	// 감사 저장소 (DB 없으면 메모리)
	db, err := services.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("❌ DB 초기화 실패: %w", err)
	}
	var store services.AuditStore
	if db != nil {
		store = services.NewGormAuditStore(db)
	}
	audit := services.NewAuditLog(store, cfg.AuditFlushSize, cfg.AuditFlushInterval)
	audit.Start()
	defer audit.Stop() // 종료 시 남은 레코드 저장

	layout, err := loadOrGenerate(cfg.LayoutFile, 0)
	if err != nil {
		return err
	}
	wh, err := services.NewWarehouse(layout, audit)
	if err != nil {
		return err
	}

	hub := handlers.NewDispatchHub()
	go hub.Start()

	window := services.NewTrafficWindow(wh, cfg.TrafficWindow, cfg.TrafficDecay)
	window.Start()
	defer window.Stop()

	api := handlers.NewAPI(wh, hub, cfg.CongestionThreshold)
	api.Coordinator.SetTaskHistory(cfg.TaskHistory)
	app := handlers.NewApp(api, cfg.CORSOrigins)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 서버 종료 중...")
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	log.Printf("🚀 서버 시작: %s (창고 %s, %d개 층)", cfg.ListenAddr, wh.Name(), len(wh.Floors()))
	log.Printf("📡 WebSocket: ws://localhost%s/websocket/dispatch", cfg.ListenAddr)
	log.Printf("💾 감사 로그 API: GET /api/audit/*")
	return app.Listen(cfg.ListenAddr)
}

// loadOrGenerate - 파일이 없으면 기본 옵션으로 레이아웃 생성
func loadOrGenerate(path string, seed int64) (models.WarehouseLayout, error) {
	if path != "" {
		layout, err := services.LoadLayout(path)
		if err != nil {
			return models.WarehouseLayout{}, err
		}
		log.Printf("📐 레이아웃 로드: %s", path)
		return layout, nil
	}
	opts := services.DefaultLayoutOptions()
	opts.Seed = seed
	log.Println("⚠️  레이아웃 파일이 없어 기본 레이아웃을 생성합니다.")
	return services.GenerateLayout(opts)
}

func validateLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-layout [layout.yaml]",
		Short: "레이아웃 파일 검증",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := services.LoadLayout(args[0])
			if err != nil {
				return err
			}
			wh, err := services.NewWarehouse(layout, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, wh.Summaries())
		},
	}
}

func generateLayoutCmd() *cobra.Command {
	opts := services.DefaultLayoutOptions()
	var out string

	cmd := &cobra.Command{
		Use:   "generate-layout",
		Short: "랙/통로 레이아웃 YAML 생성",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout, err := services.GenerateLayout(opts)
			if err != nil {
				return err
			}
			data, err := services.MarshalLayout(layout)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "창고 이름")
	cmd.Flags().IntVar(&opts.Floors, "floors", opts.Floors, "층 수")
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "층 너비")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "층 높이")
	cmd.Flags().IntVar(&opts.CrossEvery, "cross-every", opts.CrossEvery, "가로 통로 간격 (랙 행 수)")
	cmd.Flags().IntVar(&opts.HazmatRacks, "hazmat-racks", opts.HazmatRacks, "위험물 허용 랙 열 수")
	cmd.Flags().IntVar(&opts.Pillars, "pillars", opts.Pillars, "층마다 기둥 수")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "난수 시드 (0 이면 현재 시각)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "출력 파일 (기본: stdout)")
	return cmd
}

func planRouteCmd() *cobra.Command {
	var (
		layoutFile string
		seed       int64
		floor      int
		start      string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "plan-route [x,y ...]",
		Short: "한 층 피킹 경로 계산",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startCell, err := parseCell(start)
			if err != nil {
				return err
			}
			picks := make([]models.Cell, 0, len(args))
			for _, a := range args {
				c, err := parseCell(a)
				if err != nil {
					return err
				}
				picks = append(picks, c)
			}

			wh, err := offlineWarehouse(layoutFile, seed)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			route, err := services.NewRouteOptimizer(wh).PlanRoute(ctx, floor, startCell, picks)
			if err != nil {
				return err
			}
			return printJSON(cmd, route)
		},
	}

	cmd.Flags().StringVarP(&layoutFile, "layout", "l", "", "레이아웃 YAML (없으면 생성)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "생성 레이아웃 시드")
	cmd.Flags().IntVarP(&floor, "floor", "f", 0, "층 인덱스")
	cmd.Flags().StringVarP(&start, "start", "s", "1,0", "출발 셀 x,y")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "2-opt 마감")
	return cmd
}

func suggestSlotCmd() *cobra.Command {
	var (
		layoutFile string
		seed       int64
		item       models.Item
		turnover   string
	)

	cmd := &cobra.Command{
		Use:   "suggest-slot [item-id]",
		Short: "품목 슬롯 추천",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item.ID = args[0]
			item.Turnover = models.TurnoverClass(turnover)

			wh, err := offlineWarehouse(layoutFile, seed)
			if err != nil {
				return err
			}
			sug, ok, err := services.NewAllocator(wh).SuggestSlot(item)
			if err != nil {
				return err
			}
			if !ok {
				return services.ErrNoAvailableSlot
			}
			return printJSON(cmd, sug)
		},
	}

	cmd.Flags().StringVarP(&layoutFile, "layout", "l", "", "레이아웃 YAML (없으면 생성)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "생성 레이아웃 시드")
	cmd.Flags().Float64Var(&item.Weight, "weight", 10, "무게 (kg)")
	cmd.Flags().StringVar(&turnover, "turnover", string(models.TurnoverMedium), "fast | medium | slow")
	cmd.Flags().BoolVar(&item.Hazardous, "hazardous", false, "위험물")
	cmd.Flags().BoolVar(&item.Fragile, "fragile", false, "파손주의")
	return cmd
}

// offlineWarehouse - 감사 로그 없이 CLI 계산용 창고 구성
func offlineWarehouse(layoutFile string, seed int64) (*services.Warehouse, error) {
	layout, err := loadOrGenerate(layoutFile, seed)
	if err != nil {
		return nil, err
	}
	return services.NewWarehouse(layout, nil)
}

// parseCell - "x,y" 형식
func parseCell(s string) (models.Cell, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return models.Cell{}, fmt.Errorf("셀 형식은 x,y 입니다: %q", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return models.Cell{}, fmt.Errorf("셀 좌표는 정수여야 합니다: %q", s)
	}
	return models.Cell{X: x, Y: y}, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
