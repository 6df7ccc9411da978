package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"resume-feedback/internal/extract"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 1 << 20

// Rules is the immutable allow-list and size ceiling applied to every upload.
type Rules struct {
	MaxBytes   int64
	MimeTypes  map[string]struct{}
	Extensions map[string]extract.Kind
}

// DefaultRules accepts PDF and DOCX up to maxBytes.
func DefaultRules(maxBytes int64) Rules {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return Rules{
		MaxBytes: maxBytes,
		MimeTypes: map[string]struct{}{
			extract.MimePDF:  {},
			extract.MimeDOCX: {},
		},
		Extensions: map[string]extract.Kind{
			".pdf":  extract.KindPDF,
			".docx": extract.KindDOCX,
		},
	}
}

// Request is the raw input to validation.
// BodyTooLarge is set when the transport cut the body off before the form could be parsed.
type Request struct {
	File         *multipart.FileHeader
	OwnerID      string
	BodyTooLarge bool
}

// Document is an upload that passed validation.
type Document struct {
	OwnerID  string
	Name     string
	MimeType string
	Ext      string
	Kind     extract.Kind
	Size     int64
	Data     []byte
}

// Validate checks presence, size, identity, declared type, extension and
// finally the content signature, in that order, and reads the file into memory.
// Rejections are returned as *Error; read failures are returned as plain errors.
func Validate(req Request, rules Rules) (Document, error) {
	if req.File == nil && !req.BodyTooLarge {
		return Document{}, reject(CodeMissingFile)
	}
	if req.BodyTooLarge || req.File.Size > rules.MaxBytes {
		return Document{}, tooLarge(rules.MaxBytes)
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		return Document{}, reject(CodeMissingIdentity)
	}

	mimeType := normalizeMimeType(req.File.Header.Get("Content-Type"))
	if _, ok := rules.MimeTypes[mimeType]; !ok {
		return Document{}, reject(CodeUnsupportedType)
	}

	ext := strings.ToLower(filepath.Ext(req.File.Filename))
	kind, ok := rules.Extensions[ext]
	if !ok {
		return Document{}, reject(CodeUnsupportedExtension)
	}

	data, err := readAll(req.File, rules.MaxBytes)
	if err != nil {
		return Document{}, err
	}
	if int64(len(data)) > rules.MaxBytes {
		return Document{}, tooLarge(rules.MaxBytes)
	}
	if !signatureMatches(kind, data) {
		return Document{}, reject(CodeContentMismatch)
	}

	return Document{
		OwnerID:  ownerID,
		Name:     req.File.Filename,
		MimeType: mimeType,
		Ext:      ext,
		Kind:     kind,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

func readAll(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	// One extra byte so an oversized part is detectable.
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// signatureMatches sniffs magic bytes. A DOCX is accepted when detected as
// DOCX or as its zip container.
func signatureMatches(kind extract.Kind, data []byte) bool {
	detected := mimetype.Detect(data)
	switch kind {
	case extract.KindPDF:
		return detected.Is(extract.MimePDF)
	case extract.KindDOCX:
		for m := detected; m != nil; m = m.Parent() {
			if m.Is(extract.MimeDOCX) || m.Is("application/zip") {
				return true
			}
		}
	}
	return false
}

func normalizeMimeType(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return value
}
