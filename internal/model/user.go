package model

import (
	"errors"
	"time"
)

// 用户角色常量
const (
	RoleUser   = "user"   // 普通用户
	RoleLeader = "leader" // 部门领导
	RoleAdmin  = "admin"  // 系统管理员
)

// UserModel 用户数据模型,为审批引擎提供组织架构信息
type UserModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	Name         string    `gorm:"type:varchar(64);not null"` // 显示名称
	Role         string    `gorm:"type:varchar(32);not null;default:'user'"`
	DepartmentID *string   `gorm:"type:varchar(64);index"` // 所属部门 ID
	SuperiorID   *string   `gorm:"type:varchar(64);index"` // 直属上级 ID
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Name == "" {
		return errors.New("user name is required")
	}
	if um.Role == "" {
		return errors.New("user role is required")
	}
	return nil
}

// DepartmentModel 部门数据模型
type DepartmentModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(64);not null"`
	ManagerID *string   `gorm:"type:varchar(64)"` // 部门经理 ID
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DepartmentModel) TableName() string {
	return "departments"
}

// Validate 验证部门模型
func (dm *DepartmentModel) Validate() error {
	if dm.ID == "" {
		return errors.New("department ID is required")
	}
	if dm.Name == "" {
		return errors.New("department name is required")
	}
	return nil
}
