package handlers

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"wms-core/models"

	"github.com/gofiber/websocket/v2"
)

// 클라이언트 종류
const (
	ClientExecutor = "executor" // 작업 실행 시스템 (카트 제어)
	ClientWeb      = "web"      // 관제 대시보드
)

type Client struct {
	Conn       *websocket.Conn
	ClientType string
}

// DispatchHub - 디스패치 메시지 브로드캐스트 허브
type DispatchHub struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

// NewDispatchHub - 허브 생성. Start 를 별도 고루틴으로 실행해야 한다.
func NewDispatchHub() *DispatchHub {
	return &DispatchHub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan models.WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
	}
}

// Start - 클라이언트 관리 루프
func (hub *DispatchHub) Start() {
	log.Println("✅ DispatchHub 시작")
	for {
		select {
		case client := <-hub.register:
			hub.mutex.Lock()
			hub.clients[client.Conn] = client
			hub.mutex.Unlock()
			log.Printf("클라이언트 등록: %s (%s)", client.ClientType, client.Conn.RemoteAddr())

		case conn := <-hub.unregister:
			hub.remove(conn)

		case message := <-hub.broadcast:
			for _, conn := range hub.handleBroadcast(message) {
				hub.remove(conn)
			}
		}
	}
}

func (hub *DispatchHub) remove(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if client, ok := hub.clients[conn]; ok {
		delete(hub.clients, conn)
		_ = conn.Close()
		log.Printf("클라이언트 해제: %s (%s)", client.ClientType, conn.RemoteAddr())
	}
}

// shouldDeliver - 메시지 타입별 수신 대상
func shouldDeliver(msgType, clientType string) bool {
	switch msgType {
	case models.MessageTypeTask,
		models.MessageTypeRoute,
		models.MessageTypeRelocation,
		models.MessageTypeCongestion:
		// 실행 시스템과 대시보드 모두
		return true
	case models.MessageTypePlacement,
		models.MessageTypeRelease,
		models.MessageTypeSystemInfo:
		return clientType == ClientWeb
	}
	return false
}

// handleBroadcast - 전송 실패한 연결 목록 반환
func (hub *DispatchHub) handleBroadcast(message models.WebSocketMessage) []*websocket.Conn {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	var failed []*websocket.Conn
	for conn, client := range hub.clients {
		if !shouldDeliver(message.Type, client.ClientType) {
			continue
		}
		if err := conn.WriteJSON(message); err != nil {
			log.Printf("전송 실패 (%s): %v", client.ClientType, err)
			failed = append(failed, conn)
		}
	}
	return failed
}

// BroadcastMessage - 비차단 브로드캐스트. 채널이 가득 차면 버린다.
func (hub *DispatchHub) BroadcastMessage(msg models.WebSocketMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	select {
	case hub.broadcast <- msg:
	default:
		log.Println("⚠️ broadcast 채널 가득 참")
	}
}

// GetClientCount - 연결된 클라이언트 수
func (hub *DispatchHub) GetClientCount() int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return len(hub.clients)
}

// ClientCounts - 종류별 클라이언트 수
func (hub *DispatchHub) ClientCounts() map[string]int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	count := map[string]int{
		ClientExecutor: 0,
		ClientWeb:      0,
	}
	for _, client := range hub.clients {
		count[client.ClientType]++
	}
	return count
}

// HandleDispatchWebSocket - 디스패치 WebSocket. ?type=executor 는 작업 실행 시스템.
func (h *API) HandleDispatchWebSocket(c *websocket.Conn) {
	clientType := ClientWeb
	if c.Query("type") == ClientExecutor {
		clientType = ClientExecutor
	}

	// 연결 확인 메시지는 허브 등록 전에 보낸다 (동시 쓰기 금지)
	welcome := models.WebSocketMessage{
		Type: models.MessageTypeSystemInfo,
		Data: map[string]interface{}{
			"message":      "디스패치 채널 연결됨",
			"client_type":  clientType,
			"warehouse":    h.Warehouse.Name(),
			"connected_at": time.Now().Format(time.RFC3339),
		},
		Timestamp: time.Now().UnixMilli(),
	}
	_ = c.WriteJSON(welcome)

	h.Hub.register <- &Client{Conn: c, ClientType: clientType}
	defer func() {
		h.Hub.unregister <- c
	}()

	for {
		var msg models.WebSocketMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("디스패치 메시지 읽기 오류: %v", err)
			break
		}

		switch msg.Type {
		case models.MessageTypeTaskDone:
			done, err := decodeTaskDone(msg.Data)
			if err != nil || done.TaskID == "" {
				log.Printf("⚠️ 잘못된 task_done 메시지: %+v", msg.Data)
				continue
			}
			if _, err := h.Coordinator.CompleteTask(done.TaskID); err != nil {
				log.Printf("⚠️ 작업 완료 처리 실패: %v", err)
			}

		default:
			log.Printf("알 수 없는 메시지 타입: %s", msg.Type)
		}
	}
}

// decodeTaskDone - interface{} 로 디코딩된 데이터를 TaskDoneData 로 변환
func decodeTaskDone(data interface{}) (models.TaskDoneData, error) {
	var done models.TaskDoneData
	raw, err := json.Marshal(data)
	if err != nil {
		return done, err
	}
	err = json.Unmarshal(raw, &done)
	return done, err
}
