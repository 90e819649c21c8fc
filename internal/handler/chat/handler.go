package chat

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xandylearning/mentor-ai/backend/internal/analysis/transcript"
	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	chatService "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/utils"
)

// Handler 会话相关的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建会话处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Get("/", h.handleListSessions)
		r.Get("/{sessionID}", h.handleGetSession)
		r.Post("/{sessionID}/messages", h.handleStudentMessage)
		r.Post("/{sessionID}/nudges", h.handleAttachNudge)
	})
}

// transcriptResponse 会话及其消息
type transcriptResponse struct {
	Session  chat.Session   `json:"session"`
	Messages []chat.Message `json:"messages"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentID string `json:"studentId"`
		MentorID  string `json:"mentorId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErr(w, err)
		return
	}

	conv, err := h.chatSvc.CreateSession(r.Context(), payload.StudentID, payload.MentorID)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, conv)
}

// handleListSessions 列出会话，可按导师过滤
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondErr(w, apperr.Invalid("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}

	sessions, err := h.chatSvc.ListSessions(r.Context(), r.URL.Query().Get("mentorId"), limit)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

// viewMentor 导师视图，包含待审核与已拒绝的回复
const viewMentor = "mentor"

// handleGetSession 返回会话记录；默认只包含已送达学生的消息
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if view != "" && view != viewMentor {
		utils.RespondErr(w, apperr.Invalid("view", "must be empty or \"mentor\""))
		return
	}

	session, messages, err := h.chatSvc.Transcript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	if view != viewMentor {
		messages = transcript.Deliverable(messages)
	}
	utils.RespondJSON(w, http.StatusOK, transcriptResponse{Session: session, Messages: messages})
}

// handleStudentMessage 处理一次学生发言并返回AI回复
func (h *Handler) handleStudentMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string               `json:"content"`
		Style   *mentor.StyleProfile `json:"style,omitempty"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErr(w, err)
		return
	}

	conv := chatService.Conversation{SessionID: chi.URLParam(r, "sessionID")}
	result, err := h.chatSvc.HandleStudentMessage(r.Context(), conv, payload.Content, chatService.TurnOptions{Style: payload.Style})
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	status := http.StatusOK
	if result.Pending {
		// 待审核的回复不返回给学生
		status = http.StatusAccepted
		result.Reply.Content = ""
	}
	utils.RespondJSON(w, status, result)
}

// handleAttachNudge 将已展示的提醒写入会话
func (h *Handler) handleAttachNudge(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErr(w, err)
		return
	}

	msg, err := h.chatSvc.AttachNudge(r.Context(), chi.URLParam(r, "sessionID"), payload.Content)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, msg)
}
