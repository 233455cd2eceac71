package repository

import (
	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Save(user *model.UserModel) error
	FindByID(id string) (*model.UserModel, error)
	FindByIDs(ids []string) ([]*model.UserModel, error)
	FindByDepartment(departmentID string) ([]*model.UserModel, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户
func (r *userRepository) Save(user *model.UserModel) error {
	return r.db.Save(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs 批量查找用户
func (r *userRepository) FindByIDs(ids []string) ([]*model.UserModel, error) {
	var users []*model.UserModel
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindByDepartment 查找部门下的全部用户
func (r *userRepository) FindByDepartment(departmentID string) ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Where("department_id = ?", departmentID).Find(&users).Error
	return users, err
}
