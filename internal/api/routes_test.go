package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oaflow/workflow-gin/internal/api"
	"github.com/oaflow/workflow-gin/internal/auth"
	"github.com/oaflow/workflow-gin/internal/config"
	"github.com/oaflow/workflow-gin/internal/database"
	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/notify"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/oaflow/workflow-gin/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRouter 组装完整路由用于接口测试
// 使用内存数据库和开发模式请求头身份
func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	api.SetLoggerOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	notificationRepo := repository.NewNotificationRepository(db)
	dispatcher := notify.NewMultiDispatcher(
		notify.NewInboxDispatcher(notificationRepo),
		notify.NewLoggerDispatcher(log),
	)

	subjects := service.NewSubjectStore()
	directory := service.NewDirectory(db)
	controllers := api.Controllers{
		Approval: api.NewApprovalController(
			service.NewChainService(db, subjects, directory, dispatcher, log),
			service.NewApprovalService(db, subjects, dispatcher, log),
		),
		Query: api.NewQueryController(
			service.NewQueryService(db, subjects, directory),
			repository.NewAuditLogRepository(db),
		),
		Notification: api.NewNotificationController(notificationRepo),
	}

	cfg := config.Default()
	cfg.Auth.AllowDevHeader = true
	router := api.SetupRoutes(cfg, db, nil, auth.NewTokenValidator("test-secret"), controllers)
	return router, db
}

// doRequest 以指定身份发起 JSON 请求
func doRequest(router *gin.Engine, method, path, userID, role string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// seedAPIUser 写入一个用户
func seedAPIUser(t *testing.T, db *gorm.DB, id, name, role string) {
	now := time.Now()
	require.NoError(t, db.Create(&model.UserModel{
		ID:        id,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

// seedAPIRecord 写入一条草稿工作记录
func seedAPIRecord(t *testing.T, db *gorm.DB, id, title, submitterID string) {
	now := time.Now()
	require.NoError(t, db.Create(&model.RecordModel{
		ID:          id,
		Title:       title,
		Content:     "测试内容",
		SubmitterID: submitterID,
		Status:      model.RecordStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
}

// approvalEnvelope 单个审批的响应体
type approvalEnvelope struct {
	Code int                 `json:"code"`
	Data model.ApprovalModel `json:"data"`
}

// listEnvelope 分页列表响应体
type listEnvelope struct {
	Code       int                `json:"code"`
	Data       []json.RawMessage  `json:"data"`
	Pagination api.PaginationInfo `json:"pagination"`
}

// TestAPI_SingleLevelFlow 测试单级审批从创建到同意的完整接口流程
func TestAPI_SingleLevelFlow(t *testing.T) {
	router, db := setupTestRouter(t)
	seedAPIUser(t, db, "u-1", "张三", model.RoleUser)
	seedAPIUser(t, db, "u-2", "李四", model.RoleLeader)
	seedAPIRecord(t, db, "r-1", "本周周报", "u-1")

	// 1. 提交人创建单级审批
	w := doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created approvalEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 0, created.Code)
	assert.Equal(t, model.ApprovalStatusPending, created.Data.Status)
	assert.Equal(t, "u-2", created.Data.ApproverID)

	// 2. 审批人查看待办
	w = doRequest(router, http.MethodGet, "/api/v1/approvals/pending", "u-2", "leader", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pending listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	assert.Len(t, pending.Data, 1)
	assert.Equal(t, int64(1), pending.Pagination.Total)

	// 3. 审批人同意
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+created.Data.ID+"/approve", "u-2", "leader", gin.H{
		"comment": "同意,按计划执行",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resolved approvalEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, model.ApprovalStatusApproved, resolved.Data.Status)

	// 记录归档
	var record model.RecordModel
	require.NoError(t, db.Where("id = ?", "r-1").First(&record).Error)
	assert.Equal(t, model.RecordStatusArchived, record.Status)

	// 4. 创建和同意两个动作都进入审计轨迹
	w = doRequest(router, http.MethodGet, "/api/v1/subjects/record/r-1/audit", "u-1", "user", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var audit struct {
		Data []model.AuditLogModel `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	assert.Len(t, audit.Data, 2)
}

// TestAPI_ErrorMapping 测试服务层错误到 HTTP 状态码的映射
func TestAPI_ErrorMapping(t *testing.T) {
	router, db := setupTestRouter(t)
	seedAPIUser(t, db, "u-1", "张三", model.RoleUser)
	seedAPIUser(t, db, "u-2", "李四", model.RoleLeader)
	seedAPIUser(t, db, "u-3", "王五", model.RoleUser)
	seedAPIRecord(t, db, "r-1", "本周周报", "u-1")

	// 对象不存在 -> 404
	w := doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-missing",
		"approver_id":  "u-2",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 未知对象类型 -> 400
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "invoice",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 自审 -> 400
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 正常创建
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created approvalEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	approvalID := created.Data.ID

	// 重复发起 -> 409
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 非审批人处理 -> 403
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+approvalID+"/approve", "u-3", "user", gin.H{
		"comment": "同意",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 驳回原因过短 -> 400
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+approvalID+"/reject", "u-2", "leader", gin.H{
		"reason": "短",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// HTML 转义不能撑长原因,3 个字符仍然 -> 400
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+approvalID+"/reject", "u-2", "leader", gin.H{
		"reason": "<<<",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 审批 ID 格式非法 -> 400
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/bad!id/approve", "u-2", "leader", gin.H{
		"comment": "同意",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 正常同意
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+approvalID+"/approve", "u-2", "leader", gin.H{
		"comment": "同意",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 重复处理 -> 409
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+approvalID+"/approve", "u-2", "leader", gin.H{
		"comment": "同意",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestAPI_Resolve 测试显式动作处理接口
func TestAPI_Resolve(t *testing.T) {
	router, db := setupTestRouter(t)
	seedAPIUser(t, db, "u-1", "张三", model.RoleUser)
	seedAPIUser(t, db, "u-2", "李四", model.RoleLeader)
	seedAPIRecord(t, db, "r-1", "本周周报", "u-1")

	w := doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created approvalEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// 未知动作 -> 400
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+created.Data.ID+"/resolve", "u-2", "leader", gin.H{
		"action": "cancel",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// reject 动作取 reason 字段作为原因
	w = doRequest(router, http.MethodPost, "/api/v1/approvals/"+created.Data.ID+"/resolve", "u-2", "leader", gin.H{
		"action": "reject",
		"reason": "内容不完整,请补充本周进展",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resolved approvalEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, model.ApprovalStatusRejected, resolved.Data.Status)

	// 驳回后记录退回草稿
	var record model.RecordModel
	require.NoError(t, db.Where("id = ?", "r-1").First(&record).Error)
	assert.Equal(t, model.RecordStatusDraft, record.Status)
}

// TestAPI_Unauthorized 测试缺少身份时拒绝访问
func TestAPI_Unauthorized(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/approvals/pending", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAPI_Notifications 测试站内通知接口
func TestAPI_Notifications(t *testing.T) {
	router, db := setupTestRouter(t)
	seedAPIUser(t, db, "u-1", "张三", model.RoleUser)
	seedAPIUser(t, db, "u-2", "李四", model.RoleLeader)
	seedAPIRecord(t, db, "r-1", "本周周报", "u-1")

	w := doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 审批人收到待办通知
	w = doRequest(router, http.MethodGet, "/api/v1/notifications", "u-2", "leader", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []model.NotificationModel `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.False(t, list.Data[0].Read)

	// 标记已读
	w = doRequest(router, http.MethodPut, "/api/v1/notifications/"+list.Data[0].ID+"/read", "u-2", "leader", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 他人不能标记别人的通知
	w = doRequest(router, http.MethodPut, "/api/v1/notifications/"+list.Data[0].ID+"/read", "u-1", "user", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestAPI_GetChain 测试审批链查询接口
func TestAPI_GetChain(t *testing.T) {
	router, db := setupTestRouter(t)
	seedAPIUser(t, db, "u-1", "张三", model.RoleUser)
	seedAPIUser(t, db, "u-2", "李四", model.RoleLeader)
	seedAPIRecord(t, db, "r-1", "本周周报", "u-1")

	w := doRequest(router, http.MethodPost, "/api/v1/approvals/single", "u-1", "user", gin.H{
		"subject_kind": "record",
		"subject_id":   "r-1",
		"approver_id":  "u-2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/subjects/record/r-1/approvals", "u-1", "user", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var chain struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chain))
	assert.Len(t, chain.Data, 1)

	// 未知对象类型 -> 400
	w = doRequest(router, http.MethodGet, "/api/v1/subjects/invoice/r-1/approvals", "u-1", "user", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestAPI_Health 测试健康检查端点
func TestAPI_Health(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
