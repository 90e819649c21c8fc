package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	chatService "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/utils"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
)

// Handler WebSocket 会话处理器：每条入站消息触发一次学生发言
type Handler struct {
	chatSvc  *chatService.Service
	log      *zap.Logger
	upgrader websocket.Upgrader

	// readTimeout 客户端空闲上限，只在等待消息时计时
	readTimeout  time.Duration
	pingInterval time.Duration
}

// New 创建WebSocket处理器
func New(chatSvc *chatService.Service, log *zap.Logger) *Handler {
	return NewWithTimeout(chatSvc, defaultReadTimeout, log)
}

// NewWithTimeout 创建WebSocket处理器并指定读超时；ping间隔取读超时的九成
func NewWithTimeout(chatSvc *chatService.Service, readTimeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &Handler{
		chatSvc:      chatSvc,
		log:          log.Named("ws"),
		readTimeout:  readTimeout,
		pingInterval: readTimeout * 9 / 10,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Content string `json:"content"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn 串行化写操作；gorilla 连接不支持并发写
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, _, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	c := &conn{Conn: raw}
	defer c.Close()

	log := h.log.With(zap.String("session_id", sessionID))
	log.Info("connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, c)

	h.send(c, "connected", sessionID, map[string]string{"mentorId": session.MentorID, "studentId": session.StudentID})

	for {
		// A turn can outlast readTimeout, so the idle clock restarts here.
		_ = c.SetReadDeadline(time.Now().Add(h.readTimeout))

		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read error", zap.Error(err))
			}
			return
		}

		result, err := h.chatSvc.HandleStudentMessage(ctx, chatService.Conversation{SessionID: sessionID}, msg.Content, chatService.TurnOptions{})
		if err != nil {
			h.sendError(c, sessionID, err)
			continue
		}
		if result.Pending {
			// Pending replies are not shown to the student before review.
			result.Reply.Content = ""
		}
		h.send(c, "turn", sessionID, result)
	}
}

func (h *Handler) send(c *conn, kind, sessionID string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		h.log.Warn("write failed", zap.String("type", kind), zap.Error(err))
	}
}

func (h *Handler) sendError(c *conn, sessionID string, err error) {
	message := err.Error()
	if apperr.HTTPStatus(err) == http.StatusInternalServerError {
		message = "internal server error"
	}
	h.send(c, "error", sessionID, map[string]string{"message": message})
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
