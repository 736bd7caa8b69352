package services

import (
	"log"
	"sync"
	"time"
)

// TrafficWindow - 조정 윈도우마다 모든 층의 통행 카운터를 감쇠시키는 백그라운드 루프
type TrafficWindow struct {
	wh       *Warehouse
	interval time.Duration
	decay    float64

	mu        sync.Mutex
	isRunning bool
	stopChan  chan bool
	ticks     int
}

// NewTrafficWindow - decay 는 윈도우마다 곱해지는 값 (0 이면 초기화)
func NewTrafficWindow(wh *Warehouse, interval time.Duration, decay float64) *TrafficWindow {
	return &TrafficWindow{
		wh:       wh,
		interval: interval,
		decay:    decay,
		stopChan: make(chan bool),
	}
}

// Start - 감쇠 루프 시작 (interval <= 0 이면 아무것도 하지 않음)
func (tw *TrafficWindow) Start() {
	if tw.interval <= 0 {
		return
	}
	tw.mu.Lock()
	if tw.isRunning {
		tw.mu.Unlock()
		return
	}
	tw.isRunning = true
	tw.mu.Unlock()

	log.Printf("🚀 통행 윈도우 시작 (interval %v, decay %.2f)", tw.interval, tw.decay)
	go tw.run()
}

// Stop - 감쇠 루프 중지
func (tw *TrafficWindow) Stop() {
	tw.mu.Lock()
	if !tw.isRunning {
		tw.mu.Unlock()
		return
	}
	tw.isRunning = false
	tw.mu.Unlock()

	tw.stopChan <- true
	log.Println("🛑 통행 윈도우 중지")
}

func (tw *TrafficWindow) run() {
	ticker := time.NewTicker(tw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-tw.stopChan:
			return
		case <-ticker.C:
			tw.Tick()
		}
	}
}

// Tick - 윈도우 한 번 진행
func (tw *TrafficWindow) Tick() {
	for _, fm := range tw.wh.Floors() {
		fm.DecayTraffic(tw.decay)
	}
	tw.mu.Lock()
	tw.ticks++
	tw.mu.Unlock()
}

// Ticks returns how many windows have elapsed.
func (tw *TrafficWindow) Ticks() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.ticks
}

// ResetTraffic - 세션 경계: 모든 층 (floor < 0) 또는 한 층의 카운터 초기화
func (wh *Warehouse) ResetTraffic(floor int) error {
	if floor < 0 {
		for _, fm := range wh.Floors() {
			fm.ResetTraffic()
		}
		log.Println("🧹 통행 카운터 초기화 (전체)")
		return nil
	}
	fm, err := wh.Floor(floor)
	if err != nil {
		return err
	}
	fm.ResetTraffic()
	log.Printf("🧹 통행 카운터 초기화 (층 %d)", floor)
	return nil
}
