package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wacana/backend/internal/domain/semantic"
)

func TestAnnouncementDocument(t *testing.T) {
	doc := (&Announcement{ID: "a1", Title: "Jadwal UAS", Category: "Akademik", Content: "UAS dimulai 10 Juni"}).Document()
	assert.Equal(t, semantic.SourceAnnouncement, doc.SourceType)
	assert.Equal(t, "a1", doc.RowID)
	assert.Equal(t, "Jadwal UAS\nAkademik\nUAS dimulai 10 Juni", doc.Text)
}

func TestKnowledgeDocument_SkipsEmptyFields(t *testing.T) {
	doc := (&Knowledge{
		ID:       "k1",
		Kind:     KnowledgeContact,
		Title:    "Email Kaprodi",
		Content:  "kaprodi@uksw.edu",
		Synonyms: []string{"kontak kaprodi", "email prodi"},
	}).Document()

	assert.Equal(t, semantic.SourceKnowledge, doc.SourceType)
	assert.Equal(t, "Jenis: Kontak\nJudul: Email Kaprodi\nIsi: kaprodi@uksw.edu\nSinonim: kontak kaprodi, email prodi", doc.Text)
}

func TestLecturerAndPartnerDocument(t *testing.T) {
	l := (&Lecturer{ID: "l1", Fullname: "Budi", Expertise: []string{"AI", "Data"}}).Document()
	assert.Equal(t, "Nama: Budi\nKeahlian: AI, Data", l.Text)

	p := (&Partner{ID: "p1", Company: "PT Maju", Link: "https://maju.id"}).Document()
	assert.Equal(t, semantic.SourcePartner, p.SourceType)
	assert.Equal(t, "Mitra: PT Maju\nLink: https://maju.id", p.Text)
}
