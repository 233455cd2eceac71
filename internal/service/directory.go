package service

import (
	"errors"
	"fmt"

	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// Directory 组织架构查询接口
// 两级审批链构建和待办查询的角色范围判定依赖这些信息
type Directory interface {
	// GetSuperior 返回用户的直属上级 ID,未配置时返回空字符串
	GetSuperior(userID string) (string, error)
	// GetDepartmentManager 返回部门经理 ID,未配置时返回空字符串
	GetDepartmentManager(departmentID string) (string, error)
	// GetSubordinates 返回用户的直接下属 ID 列表
	GetSubordinates(userID string) ([]string, error)
	// GetDepartment 返回用户所属部门 ID,未配置时返回空字符串
	GetDepartment(userID string) (string, error)
}

// gormDirectory 基于 users/departments 表的组织架构实现
type gormDirectory struct {
	db *gorm.DB
}

// NewDirectory 创建组织架构查询器
func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

// GetSuperior 返回用户的直属上级 ID
func (d *gormDirectory) GetSuperior(userID string) (string, error) {
	var user model.UserModel
	if err := d.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", NewNotFound("用户不存在")
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user.SuperiorID == nil {
		return "", nil
	}
	return *user.SuperiorID, nil
}

// GetDepartmentManager 返回部门经理 ID
func (d *gormDirectory) GetDepartmentManager(departmentID string) (string, error) {
	var dept model.DepartmentModel
	if err := d.db.Where("id = ?", departmentID).First(&dept).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", NewNotFound("部门不存在")
		}
		return "", fmt.Errorf("failed to get department: %w", err)
	}
	if dept.ManagerID == nil {
		return "", nil
	}
	return *dept.ManagerID, nil
}

// GetSubordinates 返回用户的直接下属 ID 列表
func (d *gormDirectory) GetSubordinates(userID string) ([]string, error) {
	var ids []string
	if err := d.db.Model(&model.UserModel{}).
		Where("superior_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list subordinates: %w", err)
	}
	return ids, nil
}

// GetDepartment 返回用户所属部门 ID
func (d *gormDirectory) GetDepartment(userID string) (string, error) {
	var user model.UserModel
	if err := d.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", NewNotFound("用户不存在")
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user.DepartmentID == nil {
		return "", nil
	}
	return *user.DepartmentID, nil
}
