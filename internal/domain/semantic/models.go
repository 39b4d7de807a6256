// Package semantic 定义语义检索结果模型
package semantic

// SourceType 可检索的内容来源类型
type SourceType string

const (
	SourceAnnouncement SourceType = "announcement"
	SourceLecturer     SourceType = "lecturer"
	SourcePartner      SourceType = "partner"
	SourceKnowledge    SourceType = "knowledge"
)

// AllowedSources 参与问答检索的来源白名单
var AllowedSources = []SourceType{
	SourceAnnouncement,
	SourceLecturer,
	SourcePartner,
	SourceKnowledge,
}

// Match 语义检索命中，按相似度降序排列
type Match struct {
	RowID      string     `json:"rowId"`
	SourceType SourceType `json:"sourceType"`
	Similarity float32    `json:"similarity"`
}

// Document 待写入向量索引的一条内容
type Document struct {
	SourceType SourceType
	RowID      string
	Text       string
}
