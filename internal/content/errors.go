package content

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDocument = errors.New("content: invalid document")
	ErrNoPages         = errors.New("content: site has no pages")
	ErrUnknownSection  = errors.New("content: unknown section type")
)

// NotFoundError reports a missing page, section or stored revision.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
