package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat"
)

type runner func(run func(cmd *cobra.Command, args []string, svc *chat.Service) error) func(*cobra.Command, []string) error

func newSessionsCmd(with runner) *cobra.Command {
	var mentorID string
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "列出最近的会话",
		RunE: with(func(cmd *cobra.Command, _ []string, svc *chat.Service) error {
			sessions, err := svc.ListSessions(cmd.Context(), mentorID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "没有会话")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  mentor=%s  student=%s  created=%s\n", s.ID, s.MentorID, s.StudentID, s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "只显示该导师的会话")
	cmd.Flags().IntVar(&limit, "limit", 20, "最多显示的会话数")
	return cmd
}

func newDemoCmd(with runner) *cobra.Command {
	var mentorID, studentID, preset string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "创建预置演示对话的会话",
		RunE: with(func(cmd *cobra.Command, _ []string, svc *chat.Service) error {
			conv, n, err := svc.LoadDemoConversation(cmd.Context(), mentorID, studentID, preset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s created with %d messages\n", conv.SessionID, n)
			return nil
		}),
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "demo_mentor", "导师 ID")
	cmd.Flags().StringVar(&studentID, "student", "", "学生 ID")
	cmd.Flags().StringVar(&preset, "preset", "", "预设: encouraging, academic, casual, direct")
	return cmd
}

func newChatCmd(with runner) *cobra.Command {
	var sessionID, message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "以学生身份发送一条消息",
		RunE: with(func(cmd *cobra.Command, _ []string, svc *chat.Service) error {
			result, err := svc.HandleStudentMessage(cmd.Context(), chat.Conversation{SessionID: sessionID}, message, chat.TurnOptions{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.Summary != "" {
				fmt.Fprintf(out, "summary: %s\n", result.Summary)
			}
			if result.Pending {
				fmt.Fprintf(out, "reply %s is waiting for mentor review\n", result.Reply.ID)
				return nil
			}
			fmt.Fprintf(out, "AI Mentor: %s\n", result.Reply.Content)
			return nil
		}),
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "会话 ID")
	cmd.Flags().StringVarP(&message, "message", "m", "", "学生消息")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newAnalyzeCmd(with runner) *cobra.Command {
	var mentorID, preset string
	var samples []string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "分析导师风格并保存",
		RunE: with(func(cmd *cobra.Command, _ []string, svc *chat.Service) error {
			var (
				style mentor.Style
				err   error
			)
			if len(samples) > 0 {
				style, err = svc.AnalyzeMentorStyle(cmd.Context(), mentorID, samples)
			} else {
				style, err = svc.AnalyzePreset(cmd.Context(), mentorID, preset)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, style)
		}),
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "导师 ID")
	cmd.Flags().StringVar(&preset, "preset", "", "使用预设的样本消息")
	cmd.Flags().StringArrayVar(&samples, "sample", nil, "样本消息，可重复")
	_ = cmd.MarkFlagRequired("mentor")
	return cmd
}

func newNudgeCmd(with runner) *cobra.Command {
	var ev chat.Event
	var mentorID string

	cmd := &cobra.Command{
		Use:   "nudge",
		Short: "模拟学习事件并生成提醒",
		RunE: with(func(cmd *cobra.Command, _ []string, svc *chat.Service) error {
			nudge, err := svc.SimulateEvent(cmd.Context(), mentorID, ev)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), nudge)
			return nil
		}),
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "导师 ID")
	cmd.Flags().StringVar(&ev.Exam, "exam", "", "考试名称")
	cmd.Flags().StringVar(&ev.StudentID, "student", "", "学生 ID")
	cmd.Flags().StringVar(&ev.Score, "score", "", "成绩")
	cmd.Flags().StringVar(&ev.Date, "date", "", "日期 (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("mentor")
	return cmd
}

func newApprovalsCmd(with runner) *cobra.Command {
	var mentorID string

	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "列出待审核的 AI 回复",
		RunE: with(func(cmd *cobra.Command, _ []string, svc *chat.Service) error {
			pending, err := svc.PendingReplies(cmd.Context(), mentorID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "没有待审核的回复")
				return nil
			}
			for _, p := range pending {
				fmt.Fprintf(out, "%s  student=%s\n  Q: %s\n  A: %s\n", p.Reply.ID, p.StudentID, p.StudentMessage, p.Reply.Content)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "导师 ID")
	return cmd
}

func newReviewCmd(use, short string, approve bool, with runner) *cobra.Command {
	var reviewer string

	cmd := &cobra.Command{
		Use:   use + " <message-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, svc *chat.Service) error {
			review := svc.RejectReply
			if approve {
				review = svc.ApproveReply
			}
			msg, err := review(cmd.Context(), args[0], reviewer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", msg.ID, msg.ApprovalStatus)
			return nil
		}),
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", "mentor", "审核人")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
