/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oaflow/workflow-gin/internal/api"
	"github.com/oaflow/workflow-gin/internal/config"
	"github.com/oaflow/workflow-gin/internal/container"
	"github.com/oaflow/workflow-gin/internal/metrics"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Workflow Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for approval workflow management.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// 3. 初始化容器
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 4. 启动 WebSocket Hub
		go ctr.Hub().Run()

		// 5. 启动指标采集器
		collector := metrics.NewCollector(ctr.DB(), 15*time.Second)
		collector.Start()
		defer collector.Stop()

		// 6. 监听配置文件变更,热更新日志级别
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath, logger)
			watcher.OnChange(func(updated *config.Config) {
				level, err := logrus.ParseLevel(updated.Log.Level)
				if err != nil {
					logger.WithField("level", updated.Log.Level).Warn("invalid log level in updated config")
					return
				}
				logger.SetLevel(level)
				api.SetLoggerLevel(level)
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("failed to start config watcher")
			} else {
				defer watcher.Stop()
			}
		}

		// 7. 初始化控制器并设置路由
		controllers := api.Controllers{
			Approval:     api.NewApprovalController(ctr.ChainService(), ctr.ApprovalService()),
			Query:        api.NewQueryController(ctr.QueryService(), repository.NewAuditLogRepository(ctr.DB())),
			Notification: api.NewNotificationController(ctr.NotificationRepository()),
		}
		router := api.SetupRoutes(cfg, ctr.DB(), ctr.Hub(), ctr.TokenValidator(), controllers)

		// 8. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Fatal("server forced to shutdown")
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.workflow-gin)")
}
