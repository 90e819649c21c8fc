package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodel "github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	chatservice "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat/chattest"
)

func setupRouter(t *testing.T, opts chatservice.Options) (*chi.Mux, chattest.Fixture) {
	t.Helper()
	f := chattest.New(t, opts)
	r := chi.NewRouter()
	New(f.Service).RegisterRoutes(r)
	return r, f
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestListPresets(t *testing.T) {
	r, _ := setupRouter(t, chatservice.Options{})

	resp := do(r, http.MethodGet, "/mentors/presets", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var presets []mentor.Preset
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &presets))
	assert.Len(t, presets, len(mentor.Presets()))
}

func TestStyleNotFoundUntilAnalyzed(t *testing.T) {
	r, f := setupRouter(t, chatservice.Options{})

	resp := do(r, http.MethodGet, "/mentors/m2/style", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	preset, _ := mentor.FindPreset("direct")
	resp = do(r, http.MethodPost, "/mentors/m2/style", map[string]any{"samples": preset.Samples})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, f.Gen.Generations(ai.ModeStyle))

	resp = do(r, http.MethodGet, "/mentors/m2/style", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var style mentor.Style
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &style))
	assert.Equal(t, "m2", style.MentorID)
	assert.Equal(t, "direct", style.Profile.Tone)
	assert.Len(t, style.SampleMessages, len(preset.Samples))
}

func TestAnalyzeStyleByPreset(t *testing.T) {
	r, _ := setupRouter(t, chatservice.Options{})

	resp := do(r, http.MethodPost, "/mentors/m1/style", map[string]string{"preset": "casual"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(r, http.MethodPost, "/mentors/m1/style", map[string]string{"preset": "pirate"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(r, http.MethodPost, "/mentors/m1/style", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNudgeFromExamFields(t *testing.T) {
	r, f := setupRouter(t, chatservice.Options{})

	resp := do(r, http.MethodPost, "/mentors/m1/nudges", map[string]string{"exam": "Python Quiz 1", "studentId": "s9", "score": "85%"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, f.Gen.Replies[ai.ModeNudge], body["nudge"])

	req := f.Gen.LastRequest()
	assert.Equal(t, ai.ModeNudge, req.Mode)
	assert.Contains(t, req.Input, "Exam: 'Python Quiz 1'")
	assert.Contains(t, req.Input, "Student: 's9'")
	assert.Contains(t, req.Input, "Score: '85%'")
}

func TestNudgeFromFreeformEvent(t *testing.T) {
	r, f := setupRouter(t, chatservice.Options{})

	resp := do(r, http.MethodPost, "/mentors/m1/nudges", map[string]string{"event": "Student missed two sessions"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Student missed two sessions", f.Gen.LastRequest().Input)

	resp = do(r, http.MethodPost, "/mentors/m1/nudges", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLoadDemo(t *testing.T) {
	r, f := setupRouter(t, chatservice.Options{})

	resp := do(r, http.MethodPost, "/mentors/m3/demo", map[string]string{"preset": "academic"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var body struct {
		Session  chatservice.Conversation `json:"session"`
		Messages int                      `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	preset, _ := mentor.FindPreset("academic")
	assert.Equal(t, len(preset.Demo), body.Messages)
	assert.Equal(t, chatservice.DemoStudentID, body.Session.StudentID)

	_, messages, err := f.Service.Transcript(context.Background(), body.Session.SessionID)
	require.NoError(t, err)
	assert.Len(t, messages, len(preset.Demo))
}

func TestReviewFlow(t *testing.T) {
	r, f := setupRouter(t, chatservice.Options{RequireReview: true})
	ctx := context.Background()

	conv, err := f.Service.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)
	turn, err := f.Service.HandleStudentMessage(ctx, conv, "How do loops work?", chatservice.TurnOptions{})
	require.NoError(t, err)
	require.True(t, turn.Pending)

	resp := do(r, http.MethodGet, "/mentors/m1/approvals", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var pending []chatmodel.PendingReply
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "How do loops work?", pending[0].StudentMessage)

	resp = do(r, http.MethodPost, "/approvals/"+turn.Reply.ID+"/approve", map[string]string{"reviewer": "alice"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var msg chatmodel.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &msg))
	assert.Equal(t, chatmodel.ApprovalApproved, msg.ApprovalStatus)
	assert.Equal(t, "alice", msg.ReviewedBy)

	resp = do(r, http.MethodPost, "/approvals/"+turn.Reply.ID+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code, "already reviewed")

	resp = do(r, http.MethodPost, "/approvals/unknown/reject", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
