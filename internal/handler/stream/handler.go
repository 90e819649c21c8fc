package stream

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	chatService "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/utils"
)

// errStreamingUnsupported is returned when the writer cannot flush.
var errStreamingUnsupported = errors.New("streaming unsupported")

// Handler runs a student turn and reports its progress via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	log     *zap.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, log: log.Named("stream")}
}

// StreamResponse represents one SSE payload
type StreamResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Pending   bool   `json:"pending,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes registers the streaming endpoint
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	if err := h.HandleStreamRequest(w, r, sessionID, userMessage); err != nil {
		if errors.Is(err, errStreamingUnsupported) {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.log.Warn("stream turn failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// HandleStreamRequest runs one turn for sessionID. Events: start, then
// message or error, then end. A failed turn is reported in the stream and
// returned to the caller.
func (h *Handler) HandleStreamRequest(w http.ResponseWriter, r *http.Request, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errStreamingUnsupported
	}

	utils.SetupSSEHeaders(w)

	if err := utils.SendSSEEvent(w, flusher, "start", StreamResponse{SessionID: sessionID}); err != nil {
		return err
	}

	result, turnErr := h.chatSvc.HandleStudentMessage(r.Context(), chatService.Conversation{SessionID: sessionID}, userMessage, chatService.TurnOptions{})
	if turnErr != nil {
		h.sendSSEError(w, flusher, sessionID, turnErr)
	} else {
		resp := StreamResponse{
			SessionID: sessionID,
			MessageID: result.Reply.ID,
			Summary:   result.Summary,
			Pending:   result.Pending,
		}
		// Pending replies are not shown to the student before review.
		if !result.Pending {
			resp.Content = result.Reply.Content
		}
		if err := utils.SendSSEEvent(w, flusher, "message", resp); err != nil {
			return err
		}
	}

	if err := utils.SendSSEEvent(w, flusher, "end", StreamResponse{SessionID: sessionID, Finished: true}); err != nil {
		return err
	}

	if turnErr == nil {
		h.log.Info("stream turn completed", zap.String("session_id", sessionID))
	}
	return turnErr
}

// sendSSEError reports a failed turn. Internal errors are not exposed.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, sessionID string, err error) {
	msg := err.Error()
	if apperr.HTTPStatus(err) == http.StatusInternalServerError {
		msg = "internal server error"
	}
	if sendErr := utils.SendSSEEvent(w, flusher, "error", StreamResponse{SessionID: sessionID, Error: msg}); sendErr != nil {
		h.log.Warn("failed to send sse error", zap.Error(sendErr))
	}
}
