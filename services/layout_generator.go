package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"wms-core/models"

	"github.com/google/uuid"
)

// LayoutOptions - 생성할 랙/통로 배치 옵션
type LayoutOptions struct {
	Name        string `json:"name"`
	Floors      int    `json:"floors"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CrossEvery  int    `json:"cross_every"`  // 랙 N 행마다 가로 통로 (0 이면 없음)
	HazmatRacks int    `json:"hazmat_racks"` // 오른쪽부터 위험물 허용 랙 열 수
	Pillars     int    `json:"pillars"`      // 층마다 랙 안에 넣을 고정 장애물 수
	Seed        int64  `json:"seed"`         // 0 이면 현재 시각
}

// DefaultLayoutOptions - 기본 옵션
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Floors:      2,
		Width:       19,
		Height:      14,
		CrossEvery:  5,
		HazmatRacks: 1,
		Pillars:     2,
	}
}

// LayoutGenerator - 랙/통로 레이아웃 생성기
type LayoutGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLayoutGenerator - seed 0 이면 현재 시각으로 시드
func NewLayoutGenerator(seed int64) *LayoutGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LayoutGenerator{rng: rand.New(rand.NewSource(seed))}
}

// GenerateLayout - 옵션으로 레이아웃 생성 (시드가 같으면 결과도 같다)
func GenerateLayout(opts LayoutOptions) (models.WarehouseLayout, error) {
	return NewLayoutGenerator(opts.Seed).Generate(opts)
}

// Generate - 전형적인 랙/통로 창고.
//
// 각 층: y=0 앞쪽 메인 통로, y=H-1 뒤쪽 통로, x%3==0 (및 마지막 열) 세로 통로,
// 나머지 열은 2열 랙, CrossEvery 행마다 가로 통로, (0,0) 엘리베이터. 출고 지점은 0층 메인 통로 중앙.
func (g *LayoutGenerator) Generate(opts LayoutOptions) (models.WarehouseLayout, error) {
	if opts.Floors < 1 || opts.Width < 4 || opts.Height < 5 {
		return models.WarehouseLayout{}, fmt.Errorf("%w: need floors>=1, width>=4, height>=5 (got %d, %d, %d)",
			ErrInvalidLayout, opts.Floors, opts.Width, opts.Height)
	}
	if opts.Name == "" {
		opts.Name = "generated-" + uuid.New().String()[:8]
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	layout := models.WarehouseLayout{
		Name:      opts.Name,
		Tuning:    models.DefaultTuning(),
		CreatedAt: time.Now(),
	}
	for f := 0; f < opts.Floors; f++ {
		layout.Floors = append(layout.Floors, g.generateFloor(f, opts))
	}
	return layout, ValidateLayout(layout)
}

func isAisleColumn(x, width int) bool {
	return x%3 == 0 || x == width-1
}

func (g *LayoutGenerator) generateFloor(index int, opts LayoutOptions) models.FloorLayout {
	w, h := opts.Width, opts.Height
	floor := models.FloorLayout{
		Index:  index,
		Name:   fmt.Sprintf("floor-%d", index),
		Width:  w,
		Height: h,
	}

	zone := func(name string, kind models.ZoneKind, rects ...models.Rect) {
		floor.Zones = append(floor.Zones, models.Zone{Name: name, Kind: kind, Rects: rects})
	}

	zone("elevator-A", models.ZoneTransition, models.Rect{X0: 0, Y0: 0, X1: 0, Y1: 0})
	zone("main-aisle", models.ZoneWalkable, models.Rect{X0: 1, Y0: 0, X1: w - 1, Y1: 0})
	zone("back-aisle", models.ZoneWalkable, models.Rect{X0: 0, Y0: h - 1, X1: w - 1, Y1: h - 1})
	for x := 0; x < w; x++ {
		if isAisleColumn(x, w) {
			zone(fmt.Sprintf("aisle-%d", x), models.ZoneWalkable, models.Rect{X0: x, Y0: 1, X1: x, Y1: h - 2})
		}
	}

	crossRow := func(y int) bool {
		return opts.CrossEvery > 0 && y%(opts.CrossEvery+1) == 0
	}
	cross := 0
	for y := 1; y <= h-2; y++ {
		if crossRow(y) {
			cross++
			zone(fmt.Sprintf("cross-%d", cross), models.ZoneWalkable, models.Rect{X0: 0, Y0: y, X1: w - 1, Y1: y})
		}
	}

	// 랙 열: 연속된 랙 행 구간마다 보관 존 하나
	rackCols := 0
	for x := 0; x < w; x++ {
		if !isAisleColumn(x, w) {
			rackCols++
		}
	}
	col := 0
	var rackCells []models.Cell
	for x := 0; x < w; x++ {
		if isAisleColumn(x, w) {
			continue
		}
		col++
		hazmat := col > rackCols-opts.HazmatRacks
		seg := 0
		for y := 1; y <= h-2; {
			if crossRow(y) {
				y++
				continue
			}
			y0 := y
			for y <= h-2 && !crossRow(y) {
				rackCells = append(rackCells, models.Cell{X: x, Y: y})
				y++
			}
			seg++
			floor.Zones = append(floor.Zones, models.Zone{
				Name:       fmt.Sprintf("rack-%d-%d", x, seg),
				Kind:       models.ZoneStorage,
				Rects:      []models.Rect{{X0: x, Y0: y0, X1: x, Y1: y - 1}},
				HazmatSafe: hazmat,
			})
		}
	}

	// 고장 슬롯 (고정 장애물)
	for i := 0; i < opts.Pillars && len(rackCells) > 0; i++ {
		k := g.rng.Intn(len(rackCells))
		floor.Obstacles = append(floor.Obstacles, rackCells[k])
		rackCells = append(rackCells[:k], rackCells[k+1:]...)
	}

	if index == 0 {
		floor.Exits = []models.Cell{{X: max(1, w/2), Y: 0}}
	}
	return floor
}
