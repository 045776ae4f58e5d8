package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufefffullName,company,jobTitle,profileUrl,company\n" +
	"Jane Doe,Acme,VP of Engineering,https://www.linkedin.com/in/jane,Old Co\n" +
	"\"Smith, Bob\",Globex,CTO\n" +
	"NaN,Initech,Engineering Manager,,\n"

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), "csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "csv", rows[0].Source)
	name, ok := rows[0].Get("fullName")
	assert.True(t, ok, "BOM must be stripped from the first header")
	assert.Equal(t, "Jane Doe", name)

	company, _ := rows[0].Get("company")
	assert.Equal(t, "Acme", company, "first duplicate header wins")

	assert.Equal(t, "Smith, Bob", rows[1].Values["fullName"])
	_, ok = rows[1].Get("profileUrl")
	assert.False(t, ok, "short records lack trailing columns")

	assert.Equal(t, 2, rows[2].Index)
	assert.Equal(t, "NaN", rows[2].Values["fullName"])
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""), "csv")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVFile_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	b, err := CSVFile{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "csv", b.Source)
	assert.Len(t, b.Rows, 3)
	assert.Nil(t, b.Finalize)
}

func TestCSVFile_Missing(t *testing.T) {
	_, err := CSVFile{Path: filepath.Join(t.TempDir(), "nope.csv")}.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoInput)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = CSVFile{}.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoInput)
}

func mimeMessage(subject, attachmentName, attachmentType, body string) []byte {
	lines := []string{
		"From: exports@scraper.example",
		"To: me@example.com",
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Your export is attached.",
		"--XYZ",
		"Content-Type: " + attachmentType,
		`Content-Disposition: attachment; filename="` + attachmentName + `"`,
		"",
		body,
		"--XYZ--",
		"",
	}
	return []byte(strings.Join(lines, "\r\n"))
}

func TestExtractCSVAttachment(t *testing.T) {
	raw := mimeMessage("Export ready", "result.csv", "text/csv", "fullName,company\r\nJane,Acme")

	name, data, err := ExtractCSVAttachment(raw)
	require.NoError(t, err)
	assert.Equal(t, "result.csv", name)

	rows, err := ReadCSV(strings.NewReader(string(data)), "imap")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].Values["company"])
}

func TestExtractCSVAttachment_ByContentType(t *testing.T) {
	raw := mimeMessage("Export", "download", "application/csv", "a,b\r\n1,2")
	name, _, err := ExtractCSVAttachment(raw)
	require.NoError(t, err)
	assert.Equal(t, "download", name)
}

func TestExtractCSVAttachment_None(t *testing.T) {
	raw := mimeMessage("Invoice", "invoice.pdf", "application/pdf", "%PDF-1.4")
	_, _, err := ExtractCSVAttachment(raw)
	assert.ErrorIs(t, err, ErrNoAttachment)
}

func TestExtractCSVAttachment_TooLarge(t *testing.T) {
	prev := maxAttachmentBytes
	t.Cleanup(func() { maxAttachmentBytes = prev })

	raw := mimeMessage("Export", "result.csv", "text/csv", "a,b\r\n1,2")

	maxAttachmentBytes = 8
	_, data, err := ExtractCSVAttachment(raw)
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n1,2", string(data))

	maxAttachmentBytes = 7
	_, _, err = ExtractCSVAttachment(raw)
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)
}

func TestPickCSV(t *testing.T) {
	msgs := []Message{
		{UID: 9, Subject: "Newsletter", Raw: mimeMessage("Newsletter", "x.csv", "text/csv", "a\r\n1")},
		{UID: 8, Subject: "PhantomBuster export", Raw: mimeMessage("PhantomBuster export", "notes.txt", "text/plain", "hi")},
		{UID: 7, Subject: "phantombuster: result", Raw: mimeMessage("phantombuster: result", "result.csv", "text/csv", "a\r\n1")},
	}

	msg, name, _, ok := PickCSV(msgs, []string{"PhantomBuster"})
	require.True(t, ok)
	assert.EqualValues(t, 7, msg.UID)
	assert.Equal(t, "result.csv", name)

	msg, _, _, ok = PickCSV(msgs, nil)
	require.True(t, ok)
	assert.EqualValues(t, 9, msg.UID)

	_, _, _, ok = PickCSV(msgs, []string{"invoice"})
	assert.False(t, ok)
}
