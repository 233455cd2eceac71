package metrics

import (
	"context"
	"time"

	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
// 定期刷新数据库连接数和审批状态分布两类快照指标
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.updateApprovalStatuses()
		}
	}
}

// updateApprovalStatuses 刷新审批状态分布指标
func (c *Collector) updateApprovalStatuses() {
	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := c.db.Model(&model.ApprovalModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&counts).Error; err != nil {
		return
	}
	for _, sc := range counts {
		UpdateApprovalsByStatus(sc.Status, float64(sc.Count))
	}
}
