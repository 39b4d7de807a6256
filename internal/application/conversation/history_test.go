package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/storage"
)

func setupHistoryService(t *testing.T) *HistoryService {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, storage.InitSchema(db))
	t.Cleanup(func() { db.Close() })

	return NewHistoryService(storage.NewMessageRepository(db), &config.ChatbotConfig{HistoryLimit: 12})
}

func appendTurns(t *testing.T, s *HistoryService, owner chat.Owner, contents ...string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i, content := range contents {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		msg := chat.NewMessage(owner, role, content)
		msg.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Append(context.Background(), msg))
	}
}

func contents(messages []*chat.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Content
	}
	return out
}

func TestHistoryService_AppendSkipsBlank(t *testing.T) {
	s := setupHistoryService(t)
	owner := chat.Owner{Type: chat.OwnerGuest, ID: "g", SessionID: "s"}

	require.NoError(t, s.Append(context.Background(), chat.NewMessage(owner, chat.RoleUser, "   \n")))
	require.NoError(t, s.Append(context.Background(), nil))

	all, err := s.FullHistory(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHistoryService_RecentWindowChronological(t *testing.T) {
	s := setupHistoryService(t)
	owner := chat.Owner{Type: chat.OwnerGuest, ID: "g", SessionID: "s"}
	appendTurns(t, s, owner, "q1", "a1", "q2", "a2", "q3")

	recent, err := s.RecentWindow(context.Background(), owner, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"q2", "a2", "q3"}, contents(recent))

	// 默认窗口
	all, err := s.RecentWindow(context.Background(), owner, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "a1", "q2", "a2", "q3"}, contents(all))
}

func TestHistoryService_RecentWindowBounded(t *testing.T) {
	s := setupHistoryService(t)
	owner := chat.Owner{Type: chat.OwnerUser, ID: "u", SessionID: "s"}

	var many []string
	for i := 0; i < 20; i++ {
		many = append(many, string(rune('a'+i)))
	}
	appendTurns(t, s, owner, many...)

	recent, err := s.RecentWindow(context.Background(), owner, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 12)
	assert.Equal(t, many[8:], contents(recent))
}

func TestHistoryService_MergeGuestIntoUser(t *testing.T) {
	s := setupHistoryService(t)
	ctx := context.Background()
	guest := chat.Owner{Type: chat.OwnerGuest, ID: "g-1", SessionID: "s-1"}
	user := chat.Owner{Type: chat.OwnerUser, ID: "u-1", SessionID: "s-1"}
	appendTurns(t, s, guest, "q1", "a1")

	s.MergeGuestIntoUser(ctx, "g-1", "u-1")

	left, err := s.RecentWindow(ctx, guest, 0)
	require.NoError(t, err)
	assert.Empty(t, left)

	moved, err := s.RecentWindow(ctx, user, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "a1"}, contents(moved))
}

func TestHistoryService_MergeIgnoresEmptyIDs(t *testing.T) {
	repo := &failingRepo{}
	s := NewHistoryService(repo, nil)

	s.MergeGuestIntoUser(context.Background(), "", "u-1")
	s.MergeGuestIntoUser(context.Background(), "g-1", " ")
	assert.Zero(t, repo.reassignCalls)
}

func TestHistoryService_MergeFailureIsSwallowed(t *testing.T) {
	repo := &failingRepo{}
	s := NewHistoryService(repo, nil)

	assert.NotPanics(t, func() {
		s.MergeGuestIntoUser(context.Background(), "g-1", "u-1")
	})
	assert.Equal(t, 1, repo.reassignCalls)
}

func TestHistoryService_HandleGuestIdentified(t *testing.T) {
	s := setupHistoryService(t)
	ctx := context.Background()
	appendTurns(t, s, chat.Owner{Type: chat.OwnerGuest, ID: "g-5", SessionID: "s"}, "halo")

	require.NoError(t, s.HandleEvent(events.NewGuestIdentifiedEvent("g-5", "u-5")))

	moved, err := s.FullHistory(ctx, chat.Owner{Type: chat.OwnerUser, ID: "u-5", SessionID: "s"})
	require.NoError(t, err)
	assert.Len(t, moved, 1)
}

type failingRepo struct {
	reassignCalls int
}

func (r *failingRepo) Save(ctx context.Context, msg *chat.Message) error {
	return errors.New("db down")
}

func (r *failingRepo) FindRecent(ctx context.Context, owner chat.Owner, limit int) ([]*chat.Message, error) {
	return nil, errors.New("db down")
}

func (r *failingRepo) FindSession(ctx context.Context, owner chat.Owner) ([]*chat.Message, error) {
	return nil, errors.New("db down")
}

func (r *failingRepo) ReassignOwner(ctx context.Context, fromType chat.OwnerType, fromID string, toType chat.OwnerType, toID string) (int64, error) {
	r.reassignCalls++
	return 0, errors.New("db down")
}
