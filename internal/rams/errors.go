package rams

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the completion carried no text.
	ErrEmptyResponse = errors.New("empty completion response")
	// ErrMalformedJSON is returned when the completion is not a JSON object.
	ErrMalformedJSON = errors.New("completion is not a valid JSON object")
	// ErrTruncated marks a completion that stopped at the token limit.
	ErrTruncated = errors.New("completion stopped at the token limit")
	// ErrMissingTitle is returned when the merged document has no project title.
	ErrMissingTitle = errors.New("document has no project title")
)

// Generation stages reported by GenerationError.
const (
	StagePrompt    = "prompt"
	StageComplete  = "complete"
	StageNormalize = "normalize"
)

// GenerationError records which pipeline stage failed.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
