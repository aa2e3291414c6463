package operation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage_PartialResult(t *testing.T) {
	err := &PartialResultError{
		Total: 3,
		Failures: []ItemFailure{
			{Index: 1, FileName: "page_2.png", Err: &OperationError{Type: ErrorTypeServer, Message: "Failed to download page_2.png"}},
		},
	}

	assert.Equal(t, "Downloaded 2 of 3 files", UserMessage(err))
	assert.Equal(t, "Downloaded 2 of 3 files", UserMessage(fmt.Errorf("saving: %w", err)))
	assert.Equal(t, ErrorTypePartialResult, TypeOf(err))
	assert.Contains(t, err.Error(), "page_2.png")

	var opErr *OperationError
	assert.True(t, errors.As(err, &opErr), "per-item causes should stay reachable")
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"validation", NewValidationError(KindMerge, "bad"), ErrorTypeValidation},
		{"wrapped server", fmt.Errorf("x: %w", &OperationError{Type: ErrorTypeServer}), ErrorTypeServer},
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"plain", errors.New("boom"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
	assert.True(t, IsValidation(NewValidationError(KindSplit, "bad")))
	assert.True(t, IsTimeout(&OperationError{Type: ErrorTypeTimeout}))
}
