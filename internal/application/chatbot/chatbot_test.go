package chatbot

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/domain/content"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/llm"
	"github.com/wacana/backend/internal/infrastructure/storage"
)

// stubSearcher 返回预设命中
type stubSearcher struct {
	matches []semantic.Match
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, query string, types []semantic.SourceType, k int, threshold float32) ([]semantic.Match, error) {
	s.calls++
	return s.matches, s.err
}

// fakeGateway 记录调用并按预设返回
type fakeGateway struct {
	mu sync.Mutex

	streamChunks []string
	streamErr    error
	streamMeta   llm.Meta

	completeAnswer string
	completeErr    error
	completeMeta   llm.Meta

	streamPrompts   []string
	completePrompts []string
}

func (g *fakeGateway) Complete(ctx context.Context, system, prompt string) (string, llm.Meta, error) {
	g.mu.Lock()
	g.completePrompts = append(g.completePrompts, prompt)
	g.mu.Unlock()
	if g.completeErr != nil {
		return "", g.completeMeta, g.completeErr
	}
	return g.completeAnswer, g.completeMeta, nil
}

func (g *fakeGateway) Stream(ctx context.Context, system, prompt string, onChunk func(string)) (llm.Meta, error) {
	g.mu.Lock()
	g.streamPrompts = append(g.streamPrompts, prompt)
	g.mu.Unlock()
	for _, c := range g.streamChunks {
		onChunk(c)
	}
	return g.streamMeta, g.streamErr
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.streamPrompts) + len(g.completePrompts)
}

// capturePublisher 同步收集事件
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) metrics() []*events.QueryCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*events.QueryCompletedEvent
	for _, e := range p.events {
		if qc, ok := e.(*events.QueryCompletedEvent); ok {
			out = append(out, qc)
		}
	}
	return out
}

func setupContentRepo(t *testing.T) content.Repository {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, storage.InitSchema(db))
	t.Cleanup(func() { db.Close() })
	return storage.NewContentRepository(db)
}

func seedContent(t *testing.T, repo content.Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.SaveAnnouncement(ctx, &content.Announcement{ID: "a1", Title: "UAS", Category: "Akademik", Content: "UAS mulai 1 Juni"}))
	require.NoError(t, repo.SaveAnnouncement(ctx, &content.Announcement{ID: "a2", Title: "Wisuda", Category: "Umum", Content: "Wisuda bulan Agustus"}))
	require.NoError(t, repo.SaveLecturer(ctx, &content.Lecturer{ID: "l1", Fullname: "Dr. Sari", Expertise: []string{"AI", "NLP"}}))
	require.NoError(t, repo.SavePartner(ctx, &content.Partner{ID: "p1", Company: "PT Maju", Link: "https://maju.id"}))
	require.NoError(t, repo.SaveKnowledge(ctx, &content.Knowledge{ID: "k1", Kind: content.KnowledgeContact, Title: "TU", Content: "0812", Link: "https://tu", Synonyms: []string{"admin", "tata usaha"}}))
	require.NoError(t, repo.SaveKnowledge(ctx, &content.Knowledge{ID: "k2", Kind: content.KnowledgeService, Title: "Legalisir", Content: "Di loket 1"}))
}

var errBoom = errors.New("boom")
