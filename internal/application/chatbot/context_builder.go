package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wacana/backend/internal/domain/content"
	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// 检索参数
const (
	RetrievalTopK      = 5
	RetrievalThreshold = float32(0.1)
)

// ContextBuilder 语义检索并展开为上下文文本
type ContextBuilder struct {
	searcher semantic.Searcher
	content  content.Repository
	logger   *slog.Logger
}

// NewContextBuilder 创建上下文构建器
func NewContextBuilder(searcher semantic.Searcher, repo content.Repository) *ContextBuilder {
	return &ContextBuilder{
		searcher: searcher,
		content:  repo,
		logger:   log.NewModuleLogger("chatbot", "context"),
	}
}

// Retrieve 在白名单来源中检索
func (b *ContextBuilder) Retrieve(ctx context.Context, query string) ([]semantic.Match, error) {
	return b.searcher.Search(ctx, query, semantic.AllowedSources, RetrievalTopK, RetrievalThreshold)
}

// Build 检索并展开
func (b *ContextBuilder) Build(ctx context.Context, query string) (string, error) {
	matches, err := b.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	return b.Expand(ctx, matches)
}

// Expand 按来源类型首次出现的顺序分组，组内保持检索排名
// 已删除的内容行直接跳过；没有命中时返回空字符串
func (b *ContextBuilder) Expand(ctx context.Context, matches []semantic.Match) (string, error) {
	if len(matches) == 0 {
		return "", nil
	}

	order := make([]semantic.SourceType, 0, len(semantic.AllowedSources))
	groups := make(map[semantic.SourceType][]string)
	for _, m := range matches {
		if _, seen := groups[m.SourceType]; !seen {
			order = append(order, m.SourceType)
		}
		groups[m.SourceType] = append(groups[m.SourceType], m.RowID)
	}

	blocks := make([]string, 0, len(matches))
	for _, sourceType := range order {
		rendered, err := b.expandGroup(ctx, sourceType, groups[sourceType])
		if err != nil {
			return "", err
		}
		blocks = append(blocks, rendered...)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// expandGroup 读取一组内容行并按 ids 顺序渲染
func (b *ContextBuilder) expandGroup(ctx context.Context, sourceType semantic.SourceType, ids []string) ([]string, error) {
	switch sourceType {
	case semantic.SourceAnnouncement:
		rows, err := b.content.FindAnnouncementsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load announcements: %w", err)
		}
		return renderInOrder(ids, rows, func(a *content.Announcement) string { return a.ID }, renderAnnouncement), nil
	case semantic.SourceLecturer:
		rows, err := b.content.FindLecturersByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load lecturers: %w", err)
		}
		return renderInOrder(ids, rows, func(l *content.Lecturer) string { return l.ID }, renderLecturer), nil
	case semantic.SourcePartner:
		rows, err := b.content.FindPartnersByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load partners: %w", err)
		}
		return renderInOrder(ids, rows, func(p *content.Partner) string { return p.ID }, renderPartner), nil
	case semantic.SourceKnowledge:
		rows, err := b.content.FindKnowledgeByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge: %w", err)
		}
		return renderInOrder(ids, rows, func(k *content.Knowledge) string { return k.ID }, renderKnowledge), nil
	default:
		b.logger.Warn("Ignoring matches of unknown source type", "source_type", sourceType, "count", len(ids))
		return nil, nil
	}
}

// renderInOrder 按 ids 顺序渲染，缺失的行跳过
func renderInOrder[T any](ids []string, rows []T, key func(T) string, render func(T) string) []string {
	byID := make(map[string]T, len(rows))
	for _, row := range rows {
		byID[key(row)] = row
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, render(row))
		}
	}
	return out
}

func renderAnnouncement(a *content.Announcement) string {
	return fmt.Sprintf("Judul: %s\nKategori: %s\nIsi: %s", a.Title, a.Category, a.Content)
}

func renderLecturer(l *content.Lecturer) string {
	return fmt.Sprintf("Dosen: %s\nKeahlian: %s", l.Fullname, strings.Join(l.Expertise, ", "))
}

func renderPartner(p *content.Partner) string {
	return fmt.Sprintf("Partner: %s\nLink: %s", p.Company, p.Link)
}

func renderKnowledge(k *content.Knowledge) string {
	label := "Layanan"
	if k.Kind == content.KnowledgeContact {
		label = "Kontak"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Jenis: %s\nJudul: %s\nIsi: %s", label, k.Title, k.Content)
	if k.Link != "" {
		b.WriteString("\nLink: " + k.Link)
	}
	if len(k.Synonyms) > 0 {
		b.WriteString("\nSinonim: " + strings.Join(k.Synonyms, ", "))
	}
	return b.String()
}
