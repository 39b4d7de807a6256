package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/domain/semantic"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCacheWithClient(rdb, time.Minute), mr
}

func TestCache_GetSet(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	// 默认 TTL 生效
	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Incr(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.Incr(ctx, "rl", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.True(t, mr.TTL("rl") > 0, "首次自增应设置过期时间")

	mr.FastForward(time.Minute + time.Second)
	n, err := c.Incr(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "窗口过期后重新计数")
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	_, ok, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), ErrDisabled)
	_, err = c.Incr(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, c.Close())

	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
}

type stubSearcher struct {
	calls   int
	matches []semantic.Match
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, types []semantic.SourceType, k int, threshold float32) ([]semantic.Match, error) {
	s.calls++
	return s.matches, s.err
}

func TestCachedSearcher_CachesMatches(t *testing.T) {
	c, _ := setupTestCache(t)
	inner := &stubSearcher{matches: []semantic.Match{
		{RowID: "a1", SourceType: semantic.SourceAnnouncement, Similarity: 0.9},
		{RowID: "l1", SourceType: semantic.SourceLecturer, Similarity: 0.5},
	}}
	s := NewCachedSearcher(inner, c)
	ctx := context.Background()

	first, err := s.Search(ctx, "Jadwal  UAS", semantic.AllowedSources, 5, 0.1)
	require.NoError(t, err)
	second, err := s.Search(ctx, "jadwal uas", semantic.AllowedSources, 5, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "规范化后相同的查询应命中缓存")
	assert.Equal(t, first, second)
}

func TestCachedSearcher_ErrorNotCached(t *testing.T) {
	c, _ := setupTestCache(t)
	inner := &stubSearcher{err: errors.New("qdrant down")}
	s := NewCachedSearcher(inner, c)

	_, err := s.Search(context.Background(), "q", semantic.AllowedSources, 5, 0.1)
	assert.Error(t, err)
	_, err = s.Search(context.Background(), "q", semantic.AllowedSources, 5, 0.1)
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestSemanticKey_OrderInsensitiveTypes(t *testing.T) {
	a := SemanticKey("Halo", []semantic.SourceType{semantic.SourceLecturer, semantic.SourcePartner}, 5, 0.1)
	b := SemanticKey("halo", []semantic.SourceType{semantic.SourcePartner, semantic.SourceLecturer}, 5, 0.1)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, SemanticKey("halo", []semantic.SourceType{semantic.SourcePartner}, 5, 0.1))
}
