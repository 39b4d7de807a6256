package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wacana/backend/internal/domain/content"
	"github.com/wacana/backend/internal/domain/semantic"
)

// contentRepository 站点内容 SQLite 仓储实现
type contentRepository struct {
	db *sql.DB
}

// NewContentRepository 创建站点内容仓储
func NewContentRepository(db *sql.DB) content.Repository {
	return &contentRepository{db: db}
}

// 内容查询列
const (
	announcementColumns = "SELECT id, title, category, content FROM announcements"
	lecturerColumns     = "SELECT id, fullname, expertise, email FROM lecturers"
	partnerColumns      = "SELECT id, company, link FROM partners"
	knowledgeColumns    = "SELECT id, kind, title, content, link, synonyms FROM knowledge"
)

// FindAnnouncementsByIDs 批量读取公告
func (r *contentRepository) FindAnnouncementsByIDs(ctx context.Context, ids []string) ([]*content.Announcement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryAnnouncements(ctx, announcementColumns+" WHERE id IN ("+placeholders(len(ids))+")", stringArgs(ids)...)
}

// FindLecturersByIDs 批量读取教师
func (r *contentRepository) FindLecturersByIDs(ctx context.Context, ids []string) ([]*content.Lecturer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryLecturers(ctx, lecturerColumns+" WHERE id IN ("+placeholders(len(ids))+")", stringArgs(ids)...)
}

// FindPartnersByIDs 批量读取合作伙伴
func (r *contentRepository) FindPartnersByIDs(ctx context.Context, ids []string) ([]*content.Partner, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryPartners(ctx, partnerColumns+" WHERE id IN ("+placeholders(len(ids))+")", stringArgs(ids)...)
}

// FindKnowledgeByIDs 批量读取知识条目
func (r *contentRepository) FindKnowledgeByIDs(ctx context.Context, ids []string) ([]*content.Knowledge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryKnowledge(ctx, knowledgeColumns+" WHERE id IN ("+placeholders(len(ids))+")", stringArgs(ids)...)
}

// ListDocuments 全部内容行的索引文本，按来源类型、ID 排序
func (r *contentRepository) ListDocuments(ctx context.Context) ([]semantic.Document, error) {
	var docs []semantic.Document

	announcements, err := r.queryAnnouncements(ctx, announcementColumns+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	for _, a := range announcements {
		docs = append(docs, a.Document())
	}

	lecturers, err := r.queryLecturers(ctx, lecturerColumns+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	for _, l := range lecturers {
		docs = append(docs, l.Document())
	}

	partners, err := r.queryPartners(ctx, partnerColumns+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	for _, p := range partners {
		docs = append(docs, p.Document())
	}

	knowledge, err := r.queryKnowledge(ctx, knowledgeColumns+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	for _, k := range knowledge {
		docs = append(docs, k.Document())
	}
	return docs, nil
}

func (r *contentRepository) queryAnnouncements(ctx context.Context, query string, args ...any) ([]*content.Announcement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var result []*content.Announcement
	for rows.Next() {
		var a content.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Category, &a.Content); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}

func (r *contentRepository) queryLecturers(ctx context.Context, query string, args ...any) ([]*content.Lecturer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lecturers: %w", err)
	}
	defer rows.Close()

	var result []*content.Lecturer
	for rows.Next() {
		var (
			l         content.Lecturer
			expertise string
			email     sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Fullname, &expertise, &email); err != nil {
			return nil, fmt.Errorf("failed to scan lecturer: %w", err)
		}
		l.Expertise = decodeStringList(expertise)
		l.Email = email.String
		result = append(result, &l)
	}
	return result, rows.Err()
}

func (r *contentRepository) queryPartners(ctx context.Context, query string, args ...any) ([]*content.Partner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query partners: %w", err)
	}
	defer rows.Close()

	var result []*content.Partner
	for rows.Next() {
		var (
			p    content.Partner
			link sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Company, &link); err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		p.Link = link.String
		result = append(result, &p)
	}
	return result, rows.Err()
}

func (r *contentRepository) queryKnowledge(ctx context.Context, query string, args ...any) ([]*content.Knowledge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	defer rows.Close()

	var result []*content.Knowledge
	for rows.Next() {
		var (
			k        content.Knowledge
			kind     string
			link     sql.NullString
			synonyms string
		)
		if err := rows.Scan(&k.ID, &kind, &k.Title, &k.Content, &link, &synonyms); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge: %w", err)
		}
		k.Kind = content.KnowledgeKind(kind)
		k.Link = link.String
		k.Synonyms = decodeStringList(synonyms)
		result = append(result, &k)
	}
	return result, rows.Err()
}

// SaveAnnouncement 写入或覆盖公告
func (r *contentRepository) SaveAnnouncement(ctx context.Context, a *content.Announcement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO announcements (id, title, category, content)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.Title, a.Category, a.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to save announcement: %w", err)
	}
	return nil
}

// SaveLecturer 写入或覆盖教师
func (r *contentRepository) SaveLecturer(ctx context.Context, l *content.Lecturer) error {
	expertise, err := encodeStringList(l.Expertise)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO lecturers (id, fullname, expertise, email)
		VALUES (?, ?, ?, ?)`,
		l.ID, l.Fullname, expertise, nullString(l.Email),
	)
	if err != nil {
		return fmt.Errorf("failed to save lecturer: %w", err)
	}
	return nil
}

// SavePartner 写入或覆盖合作伙伴
func (r *contentRepository) SavePartner(ctx context.Context, p *content.Partner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO partners (id, company, link)
		VALUES (?, ?, ?)`,
		p.ID, p.Company, nullString(p.Link),
	)
	if err != nil {
		return fmt.Errorf("failed to save partner: %w", err)
	}
	return nil
}

// SaveKnowledge 写入或覆盖知识条目
func (r *contentRepository) SaveKnowledge(ctx context.Context, k *content.Knowledge) error {
	synonyms, err := encodeStringList(k.Synonyms)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO knowledge (id, kind, title, content, link, synonyms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		k.ID, string(k.Kind), k.Title, k.Content, nullString(k.Link), synonyms,
	)
	if err != nil {
		return fmt.Errorf("failed to save knowledge: %w", err)
	}
	return nil
}

func encodeStringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(data), nil
}

// decodeStringList 解析 JSON 数组，损坏数据视为空
func decodeStringList(raw string) []string {
	var values []string
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

// 编译时检查接口实现
var _ content.Repository = (*contentRepository)(nil)
