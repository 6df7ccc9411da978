package feedback

import (
	"errors"
	"fmt"
)

var (
	ErrNoJSONFound = errors.New("no valid JSON object found in model response")
	ErrInvalidJSON = errors.New("invalid JSON object in model response")
	// ErrEmptyText means extraction produced no text. The model is not called,
	// so no feedback object exists; it matches ErrNoJSONFound.
	ErrEmptyText = fmt.Errorf("%w: no readable text extracted from document", ErrNoJSONFound)
)

const ErrorCodeInternal = "Internal"
