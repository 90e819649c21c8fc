package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	chatmodel "github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	chatservice "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat/chattest"
)

func setupRouter(t *testing.T) (*chi.Mux, chattest.Fixture) {
	t.Helper()
	return setupRouterWith(t, chatservice.Options{})
}

func setupRouterWith(t *testing.T, opts chatservice.Options) (*chi.Mux, chattest.Fixture) {
	t.Helper()
	f := chattest.New(t, opts)
	handler := New(f.Service)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, f
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		payload, _ = json.Marshal(v)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) chatservice.Conversation {
	t.Helper()
	resp := doJSON(r, http.MethodPost, "/sessions", map[string]string{"studentId": "s1", "mentorId": "m1"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var conv chatservice.Conversation
	if err := json.Unmarshal(resp.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if conv.SessionID == "" {
		t.Fatal("expected session id")
	}
	return conv
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter(t)
	conv := createSession(t, r)
	if conv.MentorID != "m1" || conv.StudentID != "s1" {
		t.Fatalf("unexpected conversation %+v", conv)
	}
}

func TestCreateSessionMissingMentorID(t *testing.T) {
	r, _ := setupRouter(t)
	resp := doJSON(r, http.MethodPost, "/sessions", map[string]string{"studentId": "s1"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	r, _ := setupRouter(t)
	resp := doJSON(r, http.MethodPost, "/sessions", "{not json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStudentMessageRoundTrip(t *testing.T) {
	r, f := setupRouter(t)
	conv := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/sessions/"+conv.SessionID+"/messages", map[string]string{"content": "What is a list?"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result chatservice.TurnResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if result.Reply.Content != f.Gen.Replies[ai.ModeReply] {
		t.Fatalf("unexpected reply %q", result.Reply.Content)
	}

	resp = doJSON(r, http.MethodGet, "/sessions/"+conv.SessionID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var transcript transcriptResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(transcript.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript.Messages))
	}
	if transcript.Messages[0].SenderType != chatmodel.SenderStudent || transcript.Messages[1].SenderType != chatmodel.SenderAI {
		t.Fatalf("unexpected order: %+v", transcript.Messages)
	}
}

func TestReviewModeHidesPendingReply(t *testing.T) {
	r, f := setupRouterWith(t, chatservice.Options{RequireReview: true})
	conv := createSession(t, r)
	content := f.Gen.Replies[ai.ModeReply]

	resp := doJSON(r, http.MethodPost, "/sessions/"+conv.SessionID+"/messages", map[string]string{"content": "What is a list?"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), content) {
		t.Fatalf("pending reply leaked in turn response: %s", resp.Body.String())
	}
	var result chatservice.TurnResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if !result.Pending || result.Reply.ID == "" || result.Reply.ApprovalStatus != chatmodel.ApprovalPending {
		t.Fatalf("unexpected pending turn %+v", result)
	}

	resp = doJSON(r, http.MethodGet, "/sessions/"+conv.SessionID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), content) {
		t.Fatalf("pending reply leaked in transcript: %s", resp.Body.String())
	}
	var transcript transcriptResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(transcript.Messages) != 1 || transcript.Messages[0].SenderType != chatmodel.SenderStudent {
		t.Fatalf("expected only the student message, got %+v", transcript.Messages)
	}

	resp = doJSON(r, http.MethodGet, "/sessions/"+conv.SessionID+"?view=mentor", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), content) {
		t.Fatalf("mentor view should include the pending reply: %s", resp.Body.String())
	}

	resp = doJSON(r, http.MethodGet, "/sessions/"+conv.SessionID+"?view=admin", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown view, got %d", resp.Code)
	}
}

func TestStudentMessageUnknownSession(t *testing.T) {
	r, _ := setupRouter(t)
	resp := doJSON(r, http.MethodPost, "/sessions/missing/messages", map[string]string{"content": "hi"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStudentMessageGenerationFailure(t *testing.T) {
	r, f := setupRouter(t)
	conv := createSession(t, r)
	f.Gen.GenerateErr = apperr.Generation("reply", errors.New("upstream down"))

	resp := doJSON(r, http.MethodPost, "/sessions/"+conv.SessionID+"/messages", map[string]string{"content": "hi"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestListSessionsFiltersByMentor(t *testing.T) {
	r, _ := setupRouter(t)
	createSession(t, r)
	doJSON(r, http.MethodPost, "/sessions", map[string]string{"studentId": "s2", "mentorId": "m2"})

	resp := doJSON(r, http.MethodGet, "/sessions?mentorId=m2", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var sessions []chatmodel.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MentorID != "m2" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}

	resp = doJSON(r, http.MethodGet, "/sessions?limit=abc", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.Code)
	}
}

func TestAttachNudge(t *testing.T) {
	r, _ := setupRouter(t)
	conv := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/sessions/"+conv.SessionID+"/nudges", map[string]string{"content": "Nice work on the quiz!"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var msg chatmodel.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ApprovalStatus != chatmodel.ApprovalApproved || !msg.IsAIGenerated {
		t.Fatalf("unexpected nudge message %+v", msg)
	}
}
