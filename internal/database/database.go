package database

import (
	"context"
	"fmt"
	"time"

	"github.com/oaflow/workflow-gin/internal/config"
	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池默认配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数,缺省值补齐
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 用于测试,手动建表;PostgreSQL 走 AutoMigrate
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.ApprovalModel{},
			&model.RecordModel{},
			&model.DocumentModel{},
			&model.UserModel{},
			&model.DepartmentModel{},
			&model.NotificationModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表
func createSQLiteTables(db *gorm.DB) error {
	// 创建 approvals 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS approvals (
			id VARCHAR(64) PRIMARY KEY,
			record_id VARCHAR(64),
			document_id VARCHAR(64),
			approver_id VARCHAR(64) NOT NULL,
			level INTEGER DEFAULT 0,
			sequence INTEGER DEFAULT 0,
			group_id VARCHAR(64),
			kind VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			comment TEXT,
			reject_reason TEXT,
			resolved_at DATETIME,
			prev_id VARCHAR(64),
			next_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create approvals table: %w", err)
	}

	// 创建 records 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			content TEXT,
			submitter_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			deadline DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}

	// 创建 documents 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			file_key VARCHAR(255),
			submitter_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			deadline DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	// 创建 users 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(64) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'user',
			department_id VARCHAR(64),
			superior_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// 创建 departments 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS departments (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(64) NOT NULL,
			manager_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create departments table: %w", err)
	}

	// 创建 notifications 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}

	// 创建 audit_logs 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			actor_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			subject_kind VARCHAR(32) NOT NULL,
			subject_id VARCHAR(64) NOT NULL,
			approval_id VARCHAR(64),
			detail TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// approvals 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approvals_record_status ON approvals(record_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approvals_record_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approvals_document_status ON approvals(document_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approvals_document_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approvals_approver_status ON approvals(approver_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approvals_approver_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approvals_group ON approvals(group_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approvals_group: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approvals_resolved_at ON approvals(resolved_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approvals_resolved_at: %w", err)
	}

	// records / documents 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_records_submitter ON records(submitter_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_records_submitter: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_documents_submitter ON documents(submitter_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_documents_submitter: %w", err)
	}

	// users 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_department ON users(department_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_department: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_superior ON users(superior_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_superior: %w", err)
	}

	// notifications 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read)").Error; err != nil {
		return fmt.Errorf("failed to create idx_notifications_user: %w", err)
	}

	// audit_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_logs_actor ON audit_logs(actor_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_logs_actor: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_logs_subject ON audit_logs(subject_kind, subject_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_logs_subject: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
