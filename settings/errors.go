package settings

import "fmt"

// ParseError reports a descriptor file whose contents cannot be
// understood. It carries the descriptor filename the message refers to.
type ParseError struct {
	Filename string
	Message  string
}

func (e *ParseError) Error() string {
	return e.Filename + ": " + e.Message
}

// SaveError reports a schema that cannot be materialized into region
// bytes. It carries the descriptor filename the message refers to.
type SaveError struct {
	Filename string
	Message  string
}

func (e *SaveError) Error() string {
	return e.Filename + ": " + e.Message
}

func parseErrorf(filename, format string, a ...interface{}) error {
	return &ParseError{Filename: filename, Message: fmt.Sprintf(format, a...)}
}

func saveErrorf(filename, format string, a ...interface{}) error {
	return &SaveError{Filename: filename, Message: fmt.Sprintf(format, a...)}
}
