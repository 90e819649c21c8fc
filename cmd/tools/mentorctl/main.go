// Command mentorctl drives the mentor services against the configured sqlite
// file without the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xandylearning/mentor-ai/backend/internal/app"
	"github.com/xandylearning/mentor-ai/backend/internal/config"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/logger"
)

// openFunc 打开服务并返回释放函数
type openFunc func(ctx context.Context, verbose bool) (*chat.Service, func() error, error)

func main() {
	if err := newRootCmd(openServices).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openServices 从环境变量加载配置并组装服务
func openServices(ctx context.Context, verbose bool) (*chat.Service, func() error, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	zl, err := logger.New(logger.Options{Level: level, File: cfg.Log.File, JSONConsole: cfg.Log.JSON})
	if err != nil {
		return nil, nil, err
	}

	services, err := app.New(ctx, cfg, zl)
	if err != nil {
		return nil, nil, err
	}
	return services.Chat, func() error {
		err := services.Close()
		_ = zl.Sync()
		return err
	}, nil
}

func newRootCmd(open openFunc) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "mentorctl",
		Short: "Mentor AI 命令行工具",
		Long: `Mentor AI 命令行工具

直接使用与 API 服务相同的 sqlite 文件：创建演示会话、发送学生消息、
分析导师风格、生成提醒以及审核 AI 回复。`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	// withService 为子命令打开服务并在结束时释放
	withService := func(run func(cmd *cobra.Command, args []string, svc *chat.Service) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()
			return run(cmd, args, svc)
		}
	}

	root.AddCommand(
		newSessionsCmd(withService),
		newDemoCmd(withService),
		newChatCmd(withService),
		newAnalyzeCmd(withService),
		newNudgeCmd(withService),
		newApprovalsCmd(withService),
		newReviewCmd("approve", "批准一条待审核回复", true, withService),
		newReviewCmd("reject", "拒绝一条待审核回复", false, withService),
	)
	return root
}
