package content

import (
	"strings"

	"github.com/wacana/backend/internal/domain/semantic"
)

// Document 公告的索引文本：标题、分类、正文各占一行
func (a *Announcement) Document() semantic.Document {
	return semantic.Document{
		SourceType: semantic.SourceAnnouncement,
		RowID:      a.ID,
		Text:       joinLines(a.Title, a.Category, a.Content),
	}
}

// Document 教师的索引文本
func (l *Lecturer) Document() semantic.Document {
	return semantic.Document{
		SourceType: semantic.SourceLecturer,
		RowID:      l.ID,
		Text: joinLines(
			labeled("Nama", l.Fullname),
			labeled("Keahlian", strings.Join(l.Expertise, ", ")),
			labeled("Email", l.Email),
		),
	}
}

// Document 合作伙伴的索引文本
func (p *Partner) Document() semantic.Document {
	return semantic.Document{
		SourceType: semantic.SourcePartner,
		RowID:      p.ID,
		Text:       joinLines(labeled("Mitra", p.Company), labeled("Link", p.Link)),
	}
}

// Document 知识条目的索引文本，空字段整行省略
func (k *Knowledge) Document() semantic.Document {
	kindLabel := "Layanan"
	if k.Kind == KnowledgeContact {
		kindLabel = "Kontak"
	}
	return semantic.Document{
		SourceType: semantic.SourceKnowledge,
		RowID:      k.ID,
		Text: joinLines(
			labeled("Jenis", kindLabel),
			labeled("Judul", k.Title),
			labeled("Isi", k.Content),
			labeled("Link", k.Link),
			labeled("Sinonim", strings.Join(k.Synonyms, ", ")),
		),
	}
}

func labeled(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + ": " + value
}

func joinLines(parts ...string) string {
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			lines = append(lines, p)
		}
	}
	return strings.Join(lines, "\n")
}
