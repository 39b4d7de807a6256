// Package content 定义问答检索使用的站点内容行
package content

// Announcement 公告
type Announcement struct {
	ID       string
	Title    string
	Category string
	Content  string
}

// Lecturer 教师
type Lecturer struct {
	ID        string
	Fullname  string
	Expertise []string
	Email     string
}

// Partner 合作伙伴
type Partner struct {
	ID      string
	Company string
	Link    string
}

// KnowledgeKind 知识条目类型
type KnowledgeKind string

const (
	KnowledgeContact KnowledgeKind = "contact"
	KnowledgeService KnowledgeKind = "service"
)

// Knowledge 联系方式 / 服务说明
type Knowledge struct {
	ID       string
	Kind     KnowledgeKind
	Title    string
	Content  string
	Link     string
	Synonyms []string
}
