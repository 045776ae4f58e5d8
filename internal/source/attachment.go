package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

var (
	ErrNoAttachment       = errors.New("no csv attachment")
	ErrAttachmentTooLarge = errors.New("csv attachment too large")
)

var maxAttachmentBytes int64 = 20 << 20

// ExtractCSVAttachment returns the first CSV attachment of an RFC 822 message.
func ExtractCSVAttachment(raw []byte) (filename string, data []byte, err error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return "", nil, fmt.Errorf("read part: %w", err)
		}
		if p == nil {
			continue
		}

		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		name, _ := h.Filename()
		ct, _, _ := h.ContentType()
		if !isCSV(name, ct) {
			continue
		}

		b, err := io.ReadAll(io.LimitReader(p.Body, maxAttachmentBytes+1))
		if err != nil {
			return "", nil, fmt.Errorf("read attachment %s: %w", name, err)
		}
		if int64(len(b)) > maxAttachmentBytes {
			return "", nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAttachmentTooLarge, name, maxAttachmentBytes)
		}
		return name, b, nil
	}
	return "", nil, ErrNoAttachment
}

func isCSV(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	mt = strings.ToLower(strings.TrimSpace(mt))
	return mt == "text/csv" || mt == "application/csv"
}
