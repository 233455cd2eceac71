package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// runSerializable 在可串行化隔离级别下执行一个事务
// 并行会签的"最后一人归档"判定要求读到一致的兄弟快照,
// 弱隔离级别下两个并发的最后审批人可能都观察到"尚未全部通过"
func runSerializable(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil && isSerializationFailure(err) {
		// 串行化失败对调用方是可安全重试的冲突
		return NewConflict("并发操作冲突,请重试")
	}
	return err
}

// isSerializationFailure 判断是否为 PostgreSQL 串行化失败
// 40001 serialization_failure / 40P01 deadlock_detected
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
