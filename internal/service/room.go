package service

import (
	"time"

	"github.com/mhmdnab/chat-app-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomService 封装房间相关的业务逻辑。
type RoomService struct {
	db *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db}
}

// RoomDTO 是对外输出的房间数据，带上持久成员列表。
type RoomDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// Create 创建新房间，名字重复时返回 ErrRoomNameTaken。
func (s *RoomService) Create(name string) (*RoomDTO, error) {
	var count int64
	if err := s.db.Model(&models.Room{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrRoomNameTaken
	}
	room := models.Room{Name: name}
	if err := s.db.Create(&room).Error; err != nil {
		// 并发创建时唯一索引兜底，统一当作重名处理。
		return nil, ErrRoomNameTaken
	}
	return &RoomDTO{ID: room.ID, Name: room.Name, Members: []string{}, CreatedAt: room.CreatedAt}, nil
}

// List 返回全部房间，按创建时间升序，附带各房间的持久成员。
func (s *RoomService) List() ([]RoomDTO, error) {
	var rooms []models.Room
	if err := s.db.Preload("Members").Order("created_at asc, id asc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	out := make([]RoomDTO, 0, len(rooms))
	for _, r := range rooms {
		members := make([]string, 0, len(r.Members))
		for _, m := range r.Members {
			members = append(members, m.Username)
		}
		out = append(out, RoomDTO{ID: r.ID, Name: r.Name, Members: members, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

// Exists 检查房间是否存在。
func (s *RoomService) Exists(roomID uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, ErrRoomNotFound
	}
	return &room, nil
}

// AddMember 将用户名追加进房间的持久成员列表，已存在则不做任何事。
// 成员列表只增不删：离开房间或断线都不会触发删除。
func (s *RoomService) AddMember(roomID uint, username string) error {
	rec := models.RoomMember{RoomID: roomID, Username: username}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}
