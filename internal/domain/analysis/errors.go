package analysis

import "errors"

// ErrParseFailed indicates the model's output could not be parsed as the
// expected structured result. Rule-based output is still usable.
var ErrParseFailed = errors.New("model output parse failed")

// ErrEmptyNote indicates there was no text to analyze.
var ErrEmptyNote = errors.New("note text is empty")
