package service

import (
	"github.com/mhmdnab/chat-app-backend/internal/models"
	"gorm.io/gorm"
)

// UserService 封装用户相关的业务逻辑。
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Login 按用户名查找用户，不存在则创建。重复登录返回同一条记录，幂等。
func (s *UserService) Login(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where(models.User{Username: username}).FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
