package services

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"wms-core/models"

	"gopkg.in/yaml.v3"
)

// LoadLayout - YAML 레이아웃 파일 읽기
func LoadLayout(path string) (models.WarehouseLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.WarehouseLayout{}, fmt.Errorf("레이아웃 파일 읽기 실패: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout - YAML 파싱. tuning 에서 빠진 키는 DefaultTuning 값을 유지한다.
func ParseLayout(data []byte) (models.WarehouseLayout, error) {
	layout := models.WarehouseLayout{Tuning: models.DefaultTuning()}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&layout); err != nil {
		return models.WarehouseLayout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	layout.CreatedAt = time.Now()

	if err := ValidateLayout(layout); err != nil {
		return models.WarehouseLayout{}, err
	}
	return layout, nil
}

// MarshalLayout - YAML 직렬화 (generate-layout 출력용)
func MarshalLayout(layout models.WarehouseLayout) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(layout); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidateLayout - 층 인덱스 중복, 구조 오류, 튜닝 값 범위 확인
func ValidateLayout(layout models.WarehouseLayout) error {
	if len(layout.Floors) == 0 {
		return fmt.Errorf("%w: no floors", ErrInvalidLayout)
	}
	seen := make(map[int]bool, len(layout.Floors))
	for _, f := range layout.Floors {
		if seen[f.Index] {
			return fmt.Errorf("%w: duplicate floor index %d", ErrInvalidLayout, f.Index)
		}
		seen[f.Index] = true
		if _, err := NewFloorMap(f, 0); err != nil {
			return err
		}
	}

	t := layout.Tuning
	switch {
	case t.SearchRadius < 1:
		return fmt.Errorf("%w: tuning.search_radius must be >= 1", ErrInvalidLayout)
	case t.TravelSpeed <= 0:
		return fmt.Errorf("%w: tuning.travel_speed must be > 0", ErrInvalidLayout)
	case t.CongestionThreshold < 1:
		return fmt.Errorf("%w: tuning.congestion_threshold must be >= 1", ErrInvalidLayout)
	case t.RebalanceImprovement < 0 || t.RebalanceImprovement >= 1:
		return fmt.Errorf("%w: tuning.rebalance_improvement must be in [0,1)", ErrInvalidLayout)
	}
	return nil
}
