package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/domain/content"
	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/domain/semantic"
)

// setupTestDB 创建临时测试数据库
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "wacana_test_*")
	require.NoError(t, err)

	db, err := OpenDB(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, InitSchema(db))

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}
	return db, cleanup
}

func TestInitSchema_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, InitSchema(db), "重复初始化不应报错")
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func TestMessageRepository_RecentAndSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMessageRepository(db)
	ctx := context.Background()
	owner := chat.Owner{Type: chat.OwnerGuest, ID: "g-1", SessionID: "s-1"}

	// 同一时间戳，靠自增 ID 决定顺序
	ts := time.UnixMilli(1_700_000_000_000)
	for i, content := range []string{"q1", "a1", "q2", "a2"} {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		msg := chat.NewMessage(owner, role, content)
		msg.CreatedAt = ts
		require.NoError(t, repo.Save(ctx, msg))
		assert.NotZero(t, msg.ID)
	}

	// 其他会话的消息不应出现
	other := chat.NewMessage(chat.Owner{Type: chat.OwnerGuest, ID: "g-1", SessionID: "s-2"}, chat.RoleUser, "other")
	require.NoError(t, repo.Save(ctx, other))

	recent, err := repo.FindRecent(ctx, owner, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "a2", recent[0].Content, "最新在前")
	assert.Equal(t, "q2", recent[1].Content)
	assert.Equal(t, "a1", recent[2].Content)

	all, err := repo.FindSession(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "q1", all[0].Content, "正序")
	assert.Equal(t, chat.RoleAssistant, all[3].Role)

	none, err := repo.FindRecent(ctx, owner, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessageRepository_ReassignOwner(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMessageRepository(db)
	ctx := context.Background()
	guest := chat.Owner{Type: chat.OwnerGuest, ID: "g-9", SessionID: "s-1"}

	require.NoError(t, repo.Save(ctx, chat.NewMessage(guest, chat.RoleUser, "halo")))
	require.NoError(t, repo.Save(ctx, chat.NewMessage(guest, chat.RoleAssistant, "hai")))

	n, err := repo.ReassignOwner(ctx, chat.OwnerGuest, "g-9", chat.OwnerUser, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.FindSession(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, left)

	moved, err := repo.FindSession(ctx, chat.Owner{Type: chat.OwnerUser, ID: "u-1", SessionID: "s-1"})
	require.NoError(t, err)
	assert.Len(t, moved, 2)

	// 再次迁移不影响任何行
	n, err = repo.ReassignOwner(ctx, chat.OwnerGuest, "g-9", chat.OwnerUser, "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMetricRepository_Totals(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMetricRepository(db)
	ctx := context.Background()
	now := time.Now()

	records := []*metric.RequestMetric{
		{OwnerType: chat.OwnerGuest, OwnerID: "g-1", SessionID: "s-1", Mode: metric.ModeStream, Status: metric.StatusSuccess, Source: metric.SourceIntent, DurationMs: 10},
		{OwnerType: chat.OwnerGuest, OwnerID: "g-1", SessionID: "s-1", Mode: metric.ModeNonStream, Status: metric.StatusSuccess, Source: metric.SourceOpenRouter, ModelName: "m2", AttemptedModels: []string{"m1", "m2"}, FallbackUsed: true, FallbackCount: 1, DurationMs: 300},
		{OwnerType: chat.OwnerUser, OwnerID: "u-1", SessionID: "s-2", Mode: metric.ModeStream, Status: metric.StatusFailed, Source: metric.SourceOpenRouter, AttemptedModels: []string{"m1"}, ErrorCode: "503", ErrorMessage: "unavailable", DurationMs: 200},
		{OwnerType: chat.OwnerUser, OwnerID: "u-1", SessionID: "s-2", Mode: metric.ModeStream, Status: metric.StatusSuccess, Source: metric.SourceSemanticNoContext, DurationMs: 50},
	}
	for _, m := range records {
		m.CreatedAt = now
		require.NoError(t, repo.Save(ctx, m))
	}

	// 区间外的记录
	old := &metric.RequestMetric{OwnerType: chat.OwnerGuest, OwnerID: "g-2", SessionID: "s-9", Mode: metric.ModeStream, Status: metric.StatusFailed, Source: metric.SourceOpenRouter, CreatedAt: now.Add(-48 * time.Hour)}
	require.NoError(t, repo.Save(ctx, old))

	totals, err := repo.Totals(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(4), totals.Total)
	assert.Equal(t, int64(3), totals.Success)
	assert.Equal(t, int64(1), totals.Failed)
	assert.Equal(t, int64(1), totals.Fallback)
	assert.Equal(t, int64(1), totals.Intent)
	assert.Equal(t, int64(1), totals.NoContext)
	assert.Equal(t, int64(560), totals.DurationMs)
	assert.Equal(t, int64(2), totals.UniqueSessions)
	assert.Equal(t, int64(2), totals.UniqueOwners)
}

func TestMetricRepository_EmptyWindow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMetricRepository(db)
	now := time.Now()
	totals, err := repo.Totals(context.Background(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Zero(t, totals.Total)
}

func TestContentRepository_FindByIDs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveAnnouncement(ctx, &content.Announcement{ID: "a1", Title: "Libur", Category: "Akademik", Content: "Kampus libur"}))
	require.NoError(t, repo.SaveLecturer(ctx, &content.Lecturer{ID: "l1", Fullname: "Dr. Budi", Expertise: []string{"AI", "Data"}}))
	require.NoError(t, repo.SavePartner(ctx, &content.Partner{ID: "p1", Company: "PT Maju", Link: "https://maju.id"}))
	require.NoError(t, repo.SaveKnowledge(ctx, &content.Knowledge{ID: "k1", Kind: content.KnowledgeContact, Title: "Admin", Content: "0812", Synonyms: []string{"TU"}}))

	ann, err := repo.FindAnnouncementsByIDs(ctx, []string{"a1", "missing"})
	require.NoError(t, err)
	require.Len(t, ann, 1, "缺失的 ID 直接忽略")
	assert.Equal(t, "Libur", ann[0].Title)

	lec, err := repo.FindLecturersByIDs(ctx, []string{"l1"})
	require.NoError(t, err)
	require.Len(t, lec, 1)
	assert.Equal(t, []string{"AI", "Data"}, lec[0].Expertise)

	par, err := repo.FindPartnersByIDs(ctx, []string{"p1"})
	require.NoError(t, err)
	require.Len(t, par, 1)
	assert.Equal(t, "https://maju.id", par[0].Link)

	kn, err := repo.FindKnowledgeByIDs(ctx, []string{"k1"})
	require.NoError(t, err)
	require.Len(t, kn, 1)
	assert.Equal(t, content.KnowledgeContact, kn[0].Kind)
	assert.Equal(t, []string{"TU"}, kn[0].Synonyms)
	assert.Empty(t, kn[0].Link)

	empty, err := repo.FindAnnouncementsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestContentRepository_ListDocuments(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContentRepository(db)
	ctx := context.Background()

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.NoError(t, repo.SaveKnowledge(ctx, &content.Knowledge{ID: "k1", Kind: content.KnowledgeService, Title: "Legalisir", Content: "Di BAA"}))
	require.NoError(t, repo.SaveAnnouncement(ctx, &content.Announcement{ID: "a2", Title: "UAS", Category: "Akademik", Content: "Juni"}))
	require.NoError(t, repo.SaveAnnouncement(ctx, &content.Announcement{ID: "a1", Title: "Libur", Category: "Akademik", Content: "Kampus libur"}))
	require.NoError(t, repo.SavePartner(ctx, &content.Partner{ID: "p1", Company: "PT Maju"}))

	docs, err = repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 4)

	assert.Equal(t, semantic.SourceAnnouncement, docs[0].SourceType)
	assert.Equal(t, "a1", docs[0].RowID)
	assert.Equal(t, "Libur\nAkademik\nKampus libur", docs[0].Text)
	assert.Equal(t, "a2", docs[1].RowID)
	assert.Equal(t, semantic.SourcePartner, docs[2].SourceType)
	assert.Equal(t, "Mitra: PT Maju", docs[2].Text)
	assert.Equal(t, semantic.SourceKnowledge, docs[3].SourceType)
	assert.Equal(t, "Jenis: Layanan\nJudul: Legalisir\nIsi: Di BAA", docs[3].Text)
}
