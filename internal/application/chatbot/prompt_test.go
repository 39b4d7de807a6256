package chatbot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wacana/backend/internal/domain/chat"
)

func TestPromptComposer_Compose(t *testing.T) {
	c := NewDefaultPromptComposer()
	owner := chat.Owner{Type: chat.OwnerGuest, ID: "g", SessionID: "s"}
	history := []*chat.Message{
		chat.NewMessage(owner, chat.RoleUser, "Siapa kaprodi?"),
		chat.NewMessage(owner, chat.RoleAssistant, "Bapak X."),
	}

	prompt := c.Compose("Email beliau?", "Dosen: X\nKeahlian: AI", history)

	assert.True(t, strings.HasPrefix(prompt, "Anda adalah Mr. Wacana, Asisten Virtual Program Studi Teknologi Informasi UKSW dari Fakultas Teknologi Informasi di Universitas Kristen Satya Wacana.\n"))
	assert.Contains(t, prompt, `- Jika konteks kosong, jawab: "Saya tidak menemukan informasi tersebut di database kampus."`)
	assert.Contains(t, prompt, "RIWAYAT PERCAKAPAN:\nUser: Siapa kaprodi?\nAssistant: Bapak X.\n\nKONTEKS:\nDosen: X\nKeahlian: AI")
	assert.True(t, strings.HasSuffix(prompt, "PERTANYAAN:\nEmail beliau?\n\nJAWABAN:\n"))
}

func TestPromptComposer_EmptyHistoryAndContext(t *testing.T) {
	prompt := NewDefaultPromptComposer().Compose("q", "  ", nil)
	assert.Contains(t, prompt, "RIWAYAT PERCAKAPAN:\nBELUM ADA\n")
	assert.Contains(t, prompt, "KONTEKS:\nTIDAK ADA DATA RELEVAN\n")
}

func TestPromptComposer_Compact(t *testing.T) {
	c := NewDefaultPromptComposer()
	long := strings.Repeat("é", 3000)

	prompt := c.ComposeCompact("q", long)
	assert.Contains(t, prompt, "BELUM ADA", "压缩提示词不带历史")
	assert.Contains(t, prompt, strings.Repeat("é", 2500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("é", 2501))

	short := c.ComposeCompact("q", "pendek")
	assert.Contains(t, short, "KONTEKS:\npendek\n")
}
