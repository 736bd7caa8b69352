package models

// Tuning - 레이아웃 파일의 tuning 블록. 값은 운영 중 보정되는 설정이며 고정 규칙이 아니다.
type Tuning struct {
	Scoring ScoringWeights `json:"scoring" yaml:"scoring"`

	SearchRadius int     `json:"search_radius" yaml:"search_radius"` // 비보행 목표 주변 탐색 반경
	TravelSpeed  float64 `json:"travel_speed" yaml:"travel_speed"`   // 셀/초
	HandlingTime float64 `json:"handling_time" yaml:"handling_time"` // 품목당 처리 시간 (초)

	CongestionThreshold int `json:"congestion_threshold" yaml:"congestion_threshold"`
	FloorChangeCost     int `json:"floor_change_cost" yaml:"floor_change_cost"` // 다른 층 카트의 거리 가산

	// 재배치 제안 최소 개선율 (0.2 = 20% 이상 좋아야 제안)
	RebalanceImprovement float64 `json:"rebalance_improvement" yaml:"rebalance_improvement"`

	Override OverridePolicy `json:"override" yaml:"override"`
}

// ScoringWeights - 슬롯 점수 가중치 (낮을수록 좋은 점수)
type ScoringWeights struct {
	FastMultiplier   float64 `json:"fast_multiplier" yaml:"fast_multiplier"`
	MediumMultiplier float64 `json:"medium_multiplier" yaml:"medium_multiplier"`
	SlowMultiplier   float64 `json:"slow_multiplier" yaml:"slow_multiplier"`

	// 수요 예측 상위 품목의 회전율 배수에 곱해지는 값 (< 1)
	ForecastBoost float64 `json:"forecast_boost" yaml:"forecast_boost"`

	// dynamicAlpha = 1 + TrafficAlpha × 코리도어 통행 카운터
	TrafficAlpha float64 `json:"traffic_alpha" yaml:"traffic_alpha"`

	HeavyWeightThreshold float64 `json:"heavy_weight_threshold" yaml:"heavy_weight_threshold"` // kg
	FloorPenalty         float64 `json:"floor_penalty" yaml:"floor_penalty"`                   // 층 인덱스당
	HeavyDistanceFactor  float64 `json:"heavy_distance_factor" yaml:"heavy_distance_factor"`   // 출구 거리당

	CongestionWeight float64 `json:"congestion_weight" yaml:"congestion_weight"`
	WorkloadWeight   float64 `json:"workload_weight" yaml:"workload_weight"`

	// 파손주의 품목은 출구 거리가 이 값보다 작은 셀에 두지 않는다
	FragileMinExitDistance int `json:"fragile_min_exit_distance" yaml:"fragile_min_exit_distance"`
}

// OverridePolicy - 수동 배치 명령 검증 정책
type OverridePolicy struct {
	MinJustificationLength int            `json:"min_justification_length" yaml:"min_justification_length"`
	RequiredLevel          int            `json:"required_level" yaml:"required_level"`
	RoleLevels             map[string]int `json:"role_levels" yaml:"role_levels"`
}

// DefaultTuning - 기본 튜닝 값
func DefaultTuning() Tuning {
	return Tuning{
		Scoring: ScoringWeights{
			FastMultiplier:         0.5,
			MediumMultiplier:       1.0,
			SlowMultiplier:         1.5,
			ForecastBoost:          0.8,
			TrafficAlpha:           0.1,
			HeavyWeightThreshold:   50,
			FloorPenalty:           10,
			HeavyDistanceFactor:    0.5,
			CongestionWeight:       2,
			WorkloadWeight:         3,
			FragileMinExitDistance: 3,
		},
		SearchRadius:         3,
		TravelSpeed:          1.0,
		HandlingTime:         30,
		CongestionThreshold:  5,
		FloorChangeCost:      50,
		RebalanceImprovement: 0.2,
		Override: OverridePolicy{
			MinJustificationLength: 10,
			RequiredLevel:          2,
			RoleLevels: map[string]int{
				"operator":   1,
				"supervisor": 2,
				"admin":      3,
			},
		},
	}
}

// TurnoverMultiplier - 회전율 등급별 배수
func (w ScoringWeights) TurnoverMultiplier(class TurnoverClass) float64 {
	switch class {
	case TurnoverFast:
		return w.FastMultiplier
	case TurnoverSlow:
		return w.SlowMultiplier
	default:
		return w.MediumMultiplier
	}
}
