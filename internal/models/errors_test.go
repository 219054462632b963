package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyConflict(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want string
	}{
		{"email", errors.New("User already registered"), "That email is already registered."},
		{"firebase email", errors.New("EMAIL_EXISTS"), "That email is already registered."},
		{"handle", errors.New(`ERROR: duplicate key value violates unique constraint "idx_profiles_handle"`), "That handle is already taken."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyConflict(tt.in)
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.want, conflict.Message)
			assert.ErrorIs(t, err, tt.in)
		})
	}

	other := errors.New("connection refused")
	assert.Same(t, other, ClassifyConflict(other))
	assert.NoError(t, ClassifyConflict(nil))
}

func TestStepErrorUnwraps(t *testing.T) {
	cause := errors.New("bucket missing")
	err := error(&StepError{Step: "upload image 1", PostID: "p1", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "p1")
}
