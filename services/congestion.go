package services

import (
	"cmp"
	"slices"
)

// CongestionResult - 혼잡 판정 결과
type CongestionResult struct {
	Preferred string `json:"preferred"`
	Corridor  string `json:"corridor"`  // 실제 통과 코리도어
	Rerouted  bool   `json:"rerouted"`  // 다른 코리도어로 우회
	Saturated bool   `json:"saturated"` // 모든 후보 포화 (원래 코리도어 그대로 사용)
	Count     int    `json:"count"`     // 선택된 코리도어의 증가 후 카운터
}

// resolveCongestion - preferred 카운터가 threshold 미만이면 그대로 쓰고, 아니면 candidates 순서대로
// threshold 미만인 첫 코리도어로 우회한다. 모두 포화면 preferred 를 그대로 쓴다.
// 선택된 코리도어 카운터는 1 증가한다.
func resolveCongestion(counters map[string]int, preferred string, candidates []string, threshold int) CongestionResult {
	res := CongestionResult{Preferred: preferred, Corridor: preferred}
	if counters[preferred] >= threshold {
		res.Saturated = true
		for _, c := range candidates {
			if c == preferred {
				continue
			}
			if counters[c] < threshold {
				res.Corridor, res.Rerouted, res.Saturated = c, true, false
				break
			}
		}
	}
	counters[res.Corridor]++
	res.Count = counters[res.Corridor]
	return res
}

// candidateCorridors - preferred 를 제외한 이름 있는 코리도어를 중심 간 맨해튼 거리, 이름 순으로
func (fm *FloorMap) candidateCorridors(preferred string) []string {
	anchor, ok := fm.corridorAnchor(preferred)
	names := fm.Corridors()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != preferred {
			out = append(out, n)
		}
	}
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b string) int {
		ca, _ := fm.corridorAnchor(a)
		cb, _ := fm.corridorAnchor(b)
		return cmp.Compare(ca.Manhattan(anchor), cb.Manhattan(anchor))
	})
	return out
}

// ResolveCongestion - 층 잠금 아래에서 코리도어 혼잡 판정
func (fm *FloorMap) ResolveCongestion(preferred string, threshold int) CongestionResult {
	candidates := fm.candidateCorridors(preferred)
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return resolveCongestion(fm.traffic, preferred, candidates, threshold)
}
