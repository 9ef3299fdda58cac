package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrEmpty = errors.New("nothing to copy")

// Unsupported reports whether the platform has no clipboard utility.
func Unsupported() bool {
	return clipboard.Unsupported
}

// WriteAll puts text on the system clipboard.
func WriteAll(text string) error {
	if text == "" {
		return ErrEmpty
	}
	return clipboard.WriteAll(text)
}

func ReadAll() (string, error) {
	return clipboard.ReadAll()
}
