package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportErrorSuggestion(t *testing.T) {
	download := &ExportError{Target: "download", Message: "disk full"}
	assert.Contains(t, download.Suggestion(), "copying")

	clipboard := &ExportError{Target: "clipboard", Message: "denied"}
	assert.Contains(t, clipboard.Suggestion(), "downloading")

	for _, target := range []string{"download", "clipboard"} {
		empty := &ExportError{Target: target, Message: ErrNothingToRender.Error(), Err: ErrNothingToRender}
		assert.Contains(t, empty.Suggestion(), "generate one first")
		assert.NotContains(t, empty.Suggestion(), "instead")
	}
}

func TestExportErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("export: %w", &ExportError{Target: "download", Err: ErrNothingToRender})
	assert.True(t, errors.Is(err, ErrNothingToRender))
}
