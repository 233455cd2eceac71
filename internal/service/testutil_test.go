package service_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oaflow/workflow-gin/internal/database"
	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDBSeq 为每个测试数据库生成唯一名字
var testDBSeq atomic.Int64

// setupTestDB 创建服务层测试数据库
// 使用命名的共享缓存内存库,保证连接池中的所有连接看到同一份数据
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = database.Migrate(db)
	require.NoError(t, err)

	return db
}

// testLogger 测试用日志记录器,丢弃输出
func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// sentNotice 记录分发器收到的一条通知
type sentNotice struct {
	UserID string
	Kind   string
	Title  string
	Body   string
}

// recorderDispatcher 记录所有通知的测试分发器
type recorderDispatcher struct {
	mu      sync.Mutex
	Notices []sentNotice
}

func (d *recorderDispatcher) Notify(userID, kind, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Notices = append(d.Notices, sentNotice{UserID: userID, Kind: kind, Title: title, Body: body})
	return nil
}

// sentTo 返回发送给指定用户的通知
func (d *recorderDispatcher) sentTo(userID string) []sentNotice {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []sentNotice
	for _, n := range d.Notices {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// seedUser 写入一个用户
func seedUser(t *testing.T, db *gorm.DB, id, name, role string, departmentID, superiorID *string) {
	now := time.Now()
	err := db.Create(&model.UserModel{
		ID:           id,
		Name:         name,
		Role:         role,
		DepartmentID: departmentID,
		SuperiorID:   superiorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error
	require.NoError(t, err)
}

// seedDepartment 写入一个部门
func seedDepartment(t *testing.T, db *gorm.DB, id, name string, managerID *string) {
	now := time.Now()
	err := db.Create(&model.DepartmentModel{
		ID:        id,
		Name:      name,
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
	require.NoError(t, err)
}

// seedRecord 写入一条草稿工作记录
func seedRecord(t *testing.T, db *gorm.DB, id, title, submitterID string) {
	now := time.Now()
	err := db.Create(&model.RecordModel{
		ID:          id,
		Title:       title,
		Content:     "测试内容",
		SubmitterID: submitterID,
		Status:      model.RecordStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error
	require.NoError(t, err)
}

// seedDocument 写入一份草稿公文
func seedDocument(t *testing.T, db *gorm.DB, id, title, submitterID string) {
	now := time.Now()
	err := db.Create(&model.DocumentModel{
		ID:          id,
		Title:       title,
		SubmitterID: submitterID,
		Status:      model.DocumentStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error
	require.NoError(t, err)
}

// recordStatus 读取工作记录当前状态
func recordStatus(t *testing.T, db *gorm.DB, id string) string {
	var record model.RecordModel
	require.NoError(t, db.Where("id = ?", id).First(&record).Error)
	return record.Status
}

// documentStatus 读取公文当前状态
func documentStatus(t *testing.T, db *gorm.DB, id string) string {
	var doc model.DocumentModel
	require.NoError(t, db.Where("id = ?", id).First(&doc).Error)
	return doc.Status
}

// approvalByID 读取审批实体当前状态
func approvalByID(t *testing.T, db *gorm.DB, id string) *model.ApprovalModel {
	var approval model.ApprovalModel
	require.NoError(t, db.Where("id = ?", id).First(&approval).Error)
	return &approval
}

func strPtr(s string) *string {
	return &s
}
