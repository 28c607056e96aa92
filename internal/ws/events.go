package ws

import (
	"time"

	"github.com/mhmdnab/chat-app-backend/internal/models"
)

// inboundEvent 是所有入站事件的并集，按 Type 分发，缺失的必填字段在
// 分发前校验，不合法的事件直接丢弃、不产生任何状态变更。
type inboundEvent struct {
	Type      string `json:"type"`
	RoomID    uint   `json:"room_id"`
	Username  string `json:"username"`
	Sender    string `json:"sender"`
	To        string `json:"to"`
	Content   string `json:"content"`
	IsPrivate bool   `json:"is_private"`
}

type onlineUsersEvent struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type roomUsersEvent struct {
	Type   string   `json:"type"`
	RoomID uint     `json:"room_id"`
	Users  []string `json:"users"`
}

// messageEvent 广播的是持久化后的消息记录，而非客户端的原始输入。
type messageEvent struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	RoomID    uint      `json:"room_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type privateMessageEvent struct {
	Type         string    `json:"type"`
	ID           uint      `json:"id"`
	Sender       string    `json:"sender"`
	Participants []string  `json:"participants"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

type typingEvent struct {
	Type      string `json:"type"`
	RoomID    uint   `json:"room_id,omitempty"`
	Sender    string `json:"sender"`
	To        string `json:"to,omitempty"`
	IsPrivate bool   `json:"is_private,omitempty"`
}

func newMessageEvent(m *models.Message) messageEvent {
	var roomID uint
	if m.RoomID != nil {
		roomID = *m.RoomID
	}
	return messageEvent{Type: "message", ID: m.ID, RoomID: roomID, Sender: m.Sender, Content: m.Content, CreatedAt: m.CreatedAt}
}

func newPrivateMessageEvent(m *models.Message) privateMessageEvent {
	return privateMessageEvent{Type: "private_message", ID: m.ID, Sender: m.Sender, Participants: m.Participants(), Content: m.Content, CreatedAt: m.CreatedAt}
}
