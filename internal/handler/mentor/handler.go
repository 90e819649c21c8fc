package mentor

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	chatService "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/utils"
)

// defaultReviewer is recorded when an approval request names no reviewer.
const defaultReviewer = "mentor"

// Handler 导师相关的HTTP处理器：预设、风格分析、提醒、演示与审核
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建导师处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册导师相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/mentors/presets", h.handleListPresets)
	r.Route("/mentors/{mentorID}", func(r chi.Router) {
		r.Get("/style", h.handleGetStyle)
		r.Post("/style", h.handleAnalyzeStyle)
		r.Post("/nudges", h.handleNudge)
		r.Post("/demo", h.handleLoadDemo)
		r.Get("/approvals", h.handlePendingReplies)
	})
	r.Post("/approvals/{messageID}/approve", h.handleReview(true))
	r.Post("/approvals/{messageID}/reject", h.handleReview(false))
}

// handleListPresets 列出内置的导师预设
func (h *Handler) handleListPresets(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, mentor.Presets())
}

// handleGetStyle 返回已保存的风格，未分析过时返回404
func (h *Handler) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	style, err := h.chatSvc.GetMentorStyle(r.Context(), chi.URLParam(r, "mentorID"))
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, style)
}

// handleAnalyzeStyle 分析样本消息或预设并保存风格
func (h *Handler) handleAnalyzeStyle(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Samples []string `json:"samples"`
		Preset  string   `json:"preset"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErr(w, err)
		return
	}

	mentorID := chi.URLParam(r, "mentorID")
	var (
		style mentor.Style
		err   error
	)
	switch {
	case len(payload.Samples) > 0:
		style, err = h.chatSvc.AnalyzeMentorStyle(r.Context(), mentorID, payload.Samples)
	case strings.TrimSpace(payload.Preset) != "":
		style, err = h.chatSvc.AnalyzePreset(r.Context(), mentorID, payload.Preset)
	default:
		err = apperr.Invalid("samples", "provide samples or a preset")
	}
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, style)
}

// handleNudge 根据事件生成提醒，不写入任何会话
func (h *Handler) handleNudge(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		chatService.Event
		Description string               `json:"event"`
		Style       *mentor.StyleProfile `json:"style,omitempty"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErr(w, err)
		return
	}

	mentorID := chi.URLParam(r, "mentorID")
	var (
		nudge string
		err   error
	)
	if strings.TrimSpace(payload.Description) != "" {
		nudge, err = h.chatSvc.InvokeNudge(r.Context(), mentorID, payload.Description, payload.Style)
	} else {
		nudge, err = h.chatSvc.SimulateEvent(r.Context(), mentorID, payload.Event)
	}
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"mentorId": mentorID, "nudge": nudge})
}

// handleLoadDemo 创建预置了演示对话的会话
func (h *Handler) handleLoadDemo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Preset    string `json:"preset"`
		StudentID string `json:"studentId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErr(w, err)
		return
	}

	conv, n, err := h.chatSvc.LoadDemoConversation(r.Context(), chi.URLParam(r, "mentorID"), payload.StudentID, payload.Preset)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{"session": conv, "messages": n})
}

// handlePendingReplies 列出待审核的AI回复
func (h *Handler) handlePendingReplies(w http.ResponseWriter, r *http.Request) {
	pending, err := h.chatSvc.PendingReplies(r.Context(), chi.URLParam(r, "mentorID"))
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, pending)
}

// handleReview 批准或拒绝一条待审核回复
func (h *Handler) handleReview(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Reviewer string `json:"reviewer"`
		}
		if r.ContentLength != 0 {
			if err := utils.DecodeJSON(r, &payload); err != nil {
				utils.RespondErr(w, err)
				return
			}
		}
		reviewer := strings.TrimSpace(payload.Reviewer)
		if reviewer == "" {
			reviewer = defaultReviewer
		}

		review := h.chatSvc.RejectReply
		if approve {
			review = h.chatSvc.ApproveReply
		}
		msg, err := review(r.Context(), chi.URLParam(r, "messageID"), reviewer)
		if err != nil {
			utils.RespondErr(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, msg)
	}
}
