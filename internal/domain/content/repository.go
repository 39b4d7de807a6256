package content

import (
	"context"

	"github.com/wacana/backend/internal/domain/semantic"
)

// Repository 内容仓储接口
// FindXxxByIDs 按 ID 批量读取，不保证返回顺序，缺失的 ID 直接忽略
// ListDocuments 返回全部内容行的索引文本，供向量索引同步
// SaveXxx 仅供数据导入与测试使用，内容 CRUD 由站点其他模块负责
type Repository interface {
	FindAnnouncementsByIDs(ctx context.Context, ids []string) ([]*Announcement, error)
	FindLecturersByIDs(ctx context.Context, ids []string) ([]*Lecturer, error)
	FindPartnersByIDs(ctx context.Context, ids []string) ([]*Partner, error)
	FindKnowledgeByIDs(ctx context.Context, ids []string) ([]*Knowledge, error)
	ListDocuments(ctx context.Context) ([]semantic.Document, error)

	SaveAnnouncement(ctx context.Context, a *Announcement) error
	SaveLecturer(ctx context.Context, l *Lecturer) error
	SavePartner(ctx context.Context, p *Partner) error
	SaveKnowledge(ctx context.Context, k *Knowledge) error
}
