package service

import (
	"time"

	"github.com/mhmdnab/chat-app-backend/internal/models"
	"gorm.io/gorm"
)

// MessageService 封装消息相关的业务逻辑。消息一经写入不再更新或删除。
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// CreateRoomMessage 持久化一条房间消息并返回存储后的完整记录。
func (s *MessageService) CreateRoomMessage(roomID uint, sender, content string) (*models.Message, error) {
	msg := models.Message{RoomID: &roomID, Sender: sender, Content: content}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateDirectMessage 持久化一条私聊消息，参与者按字典序归一化存储。
func (s *MessageService) CreateDirectMessage(sender, to, content string) (*models.Message, error) {
	lo, hi := sender, to
	if lo > hi {
		lo, hi = hi, lo
	}
	msg := models.Message{Sender: sender, Content: content, PeerLo: lo, PeerHi: hi}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByRoom 返回房间消息，按时间升序；limit<=0 或超上限时取默认值。
func (s *MessageService) ListByRoom(roomID uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var msgs []models.Message
	err := s.db.Where("room_id = ?", roomID).
		Order("created_at asc, id asc").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// DirectMessageDTO 是对外输出的私聊消息数据，补上参与者集合。
type DirectMessageDTO struct {
	ID           uint      `json:"id"`
	Sender       string    `json:"sender"`
	Participants []string  `json:"participants"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListBetween 返回参与者集合恰好为 {u1,u2} 的私聊消息，按时间升序。
func (s *MessageService) ListBetween(u1, u2 string, limit int) ([]DirectMessageDTO, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	lo, hi := u1, u2
	if lo > hi {
		lo, hi = hi, lo
	}
	var msgs []models.Message
	err := s.db.Where("peer_lo = ? AND peer_hi = ?", lo, hi).
		Order("created_at asc, id asc").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	out := make([]DirectMessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, DirectMessageDTO{ID: m.ID, Sender: m.Sender, Participants: m.Participants(), Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return out, nil
}
