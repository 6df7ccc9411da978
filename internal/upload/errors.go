package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies why an upload was rejected.
type Code string

const (
	CodeMissingFile          Code = "MissingFile"
	CodeFileTooLarge         Code = "FileTooLarge"
	CodeMissingIdentity      Code = "MissingIdentity"
	CodeUnsupportedType      Code = "UnsupportedType"
	CodeUnsupportedExtension Code = "UnsupportedExtension"
	CodeContentMismatch      Code = "ContentMismatch"
)

const (
	msgMissingFile          = "No file uploaded"
	msgFileTooLarge         = "File too large. Your resume is over %s. Make sure it's only one page and contains clean, readable text. Avoid using images or scanned PDFs."
	msgMissingIdentity      = "Missing user ID"
	msgUnsupportedType      = "Unsupported file type. File content is not a valid PDF or DOCX."
	msgUnsupportedExtension = "Unsupported file type. Only PDF or DOCX files are accepted."
	msgContentMismatch      = "Unsupported file type. File content does not match its PDF or DOCX extension."
)

// Error is a rejected upload. Message is safe to return to the caller.
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func reject(code Code) *Error {
	switch code {
	case CodeMissingFile:
		return &Error{Code: code, Status: http.StatusBadRequest, Message: msgMissingFile}
	case CodeMissingIdentity:
		return &Error{Code: code, Status: http.StatusUnauthorized, Message: msgMissingIdentity}
	case CodeUnsupportedType:
		return &Error{Code: code, Status: http.StatusBadRequest, Message: msgUnsupportedType}
	case CodeUnsupportedExtension:
		return &Error{Code: code, Status: http.StatusBadRequest, Message: msgUnsupportedExtension}
	default:
		return &Error{Code: CodeContentMismatch, Status: http.StatusBadRequest, Message: msgContentMismatch}
	}
}

func tooLarge(maxBytes int64) *Error {
	return &Error{
		Code:    CodeFileTooLarge,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(msgFileTooLarge, humanSize(maxBytes)),
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// AsError unwraps err into a validation error, if it is one.
func AsError(err error) (*Error, bool) {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}
