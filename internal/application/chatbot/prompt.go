package chatbot

import (
	"fmt"
	"strings"

	"github.com/wacana/backend/internal/domain/chat"
)

// compactContextLimit 压缩提示词的上下文上限（字符）
const compactContextLimit = 2500

// PromptComposer 提示词组装
type PromptComposer struct {
	persona Persona
}

// NewPromptComposer 创建提示词组装器
func NewPromptComposer(persona Persona) *PromptComposer {
	return &PromptComposer{persona: persona}
}

// Compose 完整提示词：身份与规则、历史、上下文、问题
func (c *PromptComposer) Compose(query, context string, history []*chat.Message) string {
	return c.render(query, context, renderHistory(history))
}

// ComposeCompact 压缩提示词：不带历史，上下文截断
func (c *PromptComposer) ComposeCompact(query, context string) string {
	return c.render(query, truncateRunes(context, compactContextLimit), renderHistory(nil))
}

func (c *PromptComposer) render(query, context, history string) string {
	p := c.persona
	if strings.TrimSpace(context) == "" {
		context = "TIDAK ADA DATA RELEVAN"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Anda adalah %s, %s dari %s di %s.\n", p.Name, p.Role, p.Department, p.University)
	fmt.Fprintf(&b, "Bahasa: %s. Gaya: %s.\n\n", p.Language, p.Tone)
	b.WriteString("ATURAN KERAS:\n")
	fmt.Fprintf(&b, "- Jika konteks kosong, jawab: \"%s\"\n", RefusalSentence)
	b.WriteString("- Jangan mengarang.\n")
	b.WriteString("- Jawab hanya berdasarkan konteks.\n")
	b.WriteString("- Gunakan bahasa sopan dan jelas.\n\n")
	b.WriteString("RIWAYAT PERCAKAPAN:\n")
	b.WriteString(history)
	b.WriteString("\n\nKONTEKS:\n")
	b.WriteString(context)
	b.WriteString("\n\nPERTANYAAN:\n")
	b.WriteString(query)
	b.WriteString("\n\nJAWABAN:\n")
	return b.String()
}

// renderHistory 每条消息一行，按时间正序
func renderHistory(history []*chat.Message) string {
	if len(history) == 0 {
		return "BELUM ADA"
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		if m.Role == chat.RoleUser {
			lines = append(lines, "User: "+m.Content)
		} else {
			lines = append(lines, "Assistant: "+m.Content)
		}
	}
	return strings.Join(lines, "\n")
}

// truncateRunes 超过 limit 个字符时截断并追加省略标记
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
