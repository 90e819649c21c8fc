package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/config"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "mentor_ai.db"),
		BusyTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateSessionValidates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, "", "m1")
	assert.True(t, apperr.IsValidation(err))

	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.StudentID)
	assert.Equal(t, "m1", got.MentorID)

	_, err = store.GetSession(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddMessageKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A clock that jumps backwards must not reorder timestamps.
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	var mu sync.Mutex
	i := 0
	store.clock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick := ticks[i%len(ticks)]
		i++
		return tick
	})

	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := store.AddMessage(ctx, chat.NewMessage{SessionID: session.ID, Sender: chat.SenderStudent, Content: c})
		require.NoError(t, err)
	}

	messages, err := store.GetSessionMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for idx, msg := range messages {
		assert.Equal(t, contents[idx], msg.Content)
		assert.Equal(t, int64(idx+1), msg.Seq)
		assert.Equal(t, chat.ApprovalNone, msg.ApprovalStatus)
		if idx > 0 {
			assert.False(t, msg.CreatedAt.Before(messages[idx-1].CreatedAt), "timestamps must not decrease")
		}
	}
}

func TestAddMessageUnknownSessionWritesNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddMessage(ctx, chat.NewMessage{SessionID: "nope", Sender: chat.SenderStudent, Content: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	var count int64
	require.NoError(t, store.db.Model(&chat.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddMessageRejectsUnknownSender(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)

	_, err = store.AddMessage(ctx, chat.NewMessage{SessionID: session.ID, Sender: "bot", Content: "hi"})
	assert.True(t, apperr.IsValidation(err))
}

func TestGetSessionMessagesEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)

	messages, err := store.GetSessionMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)

	_, err = store.GetSessionMessages(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddMessagesBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)

	_, err = store.AddMessage(ctx, chat.NewMessage{SessionID: session.ID, Sender: chat.SenderStudent, Content: "hello"})
	require.NoError(t, err)

	stored, err := store.AddMessages(ctx, session.ID, []chat.NewMessage{
		{Sender: chat.SenderMentor, Content: "hi"},
		{Sender: chat.SenderStudent, Content: "question"},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(2), stored[0].Seq)
	assert.Equal(t, int64(3), stored[1].Seq)

	_, err = store.AddMessages(ctx, "missing", []chat.NewMessage{{Sender: chat.SenderStudent, Content: "x"}})
	assert.True(t, apperr.IsNotFound(err))
}

func TestConcurrentAddMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddMessage(ctx, chat.NewMessage{SessionID: session.ID, Sender: chat.SenderStudent, Content: "ping"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	messages, err := store.GetSessionMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 10)
	for idx, msg := range messages {
		assert.Equal(t, int64(idx+1), msg.Seq)
	}
}

func TestListSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	store.clock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	})

	_, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, "s2", "m2")
	require.NoError(t, err)
	latest, err := store.CreateSession(ctx, "s3", "m1")
	require.NoError(t, err)

	sessions, err := store.ListSessions(ctx, "m1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, latest.ID, sessions[0].ID)

	all, err := store.ListSessions(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMentorStyleUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.GetMentorStyle(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, found)

	first := mentor.StyleProfile{Tone: "casual", Extra: map[string]any{"favorite_analogy": "recipes"}}
	_, err = store.SaveMentorStyle(ctx, "m1", first, []string{"a"}, 0.6)
	require.NoError(t, err)

	second := mentor.StyleProfile{Tone: "direct", CommonPhrases: []string{"Show me"}}
	saved, err := store.SaveMentorStyle(ctx, "m1", second, []string{"b", "c"}, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "direct", saved.Profile.Tone)

	var count int64
	require.NoError(t, store.db.Model(&styleRecord{}).Where("mentor_id = ?", "m1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, found, err := store.GetMentorStyle(ctx, "m1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "direct", got.Profile.Tone)
	assert.Equal(t, []string{"Show me"}, got.Profile.CommonPhrases)
	assert.Equal(t, []string{"b", "c"}, got.SampleMessages)
	assert.InDelta(t, 0.8, got.ConfidenceScore, 1e-9)
	assert.NotContains(t, got.Profile.Extra, "favorite_analogy")
}

func TestMentorStyleKeepsUnknownKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := mentor.StyleProfile{Tone: "warm", Extra: map[string]any{"signature_move": "asks a follow-up"}}
	_, err := store.SaveMentorStyle(ctx, "m2", profile, nil, 0.8)
	require.NoError(t, err)

	got, found, err := store.GetMentorStyle(ctx, "m2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asks a follow-up", got.Profile.Extra["signature_move"])
	assert.Empty(t, got.SampleMessages)
}

func TestReviewReply(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "s1", "m1")
	require.NoError(t, err)

	_, err = store.AddMessage(ctx, chat.NewMessage{SessionID: session.ID, Sender: chat.SenderStudent, Content: "What is a list?"})
	require.NoError(t, err)
	reply, err := store.AddMessage(ctx, chat.NewMessage{
		SessionID:      session.ID,
		Sender:         chat.SenderAI,
		Content:        "An ordered collection.",
		IsAIGenerated:  true,
		ApprovalStatus: chat.ApprovalPending,
	})
	require.NoError(t, err)

	pending, err := store.ListPendingReplies(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reply.ID, pending[0].Reply.ID)
	assert.Equal(t, "What is a list?", pending[0].StudentMessage)
	assert.Equal(t, "s1", pending[0].StudentID)

	other, err := store.ListPendingReplies(ctx, "m2")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = store.ReviewReply(ctx, reply.ID, "mentor-1", chat.ApprovalPending)
	assert.True(t, apperr.IsValidation(err))

	approved, err := store.ReviewReply(ctx, reply.ID, "mentor-1", chat.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, chat.ApprovalApproved, approved.ApprovalStatus)
	assert.Equal(t, "mentor-1", approved.ReviewedBy)
	assert.Equal(t, "An ordered collection.", approved.Content)

	_, err = store.ReviewReply(ctx, reply.ID, "mentor-1", chat.ApprovalRejected)
	assert.True(t, apperr.IsValidation(err), "a reviewed reply cannot be reviewed again")

	_, err = store.ReviewReply(ctx, "missing", "mentor-1", chat.ApprovalRejected)
	assert.True(t, apperr.IsNotFound(err))

	pending, err = store.ListPendingReplies(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
