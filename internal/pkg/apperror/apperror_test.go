package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	errAlreadyDone := Conflict("already done")
	wrapped := fmt.Errorf("failed to approve: %w", errAlreadyDone)

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.True(t, errors.Is(wrapped, errAlreadyDone))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, Conflict("already done")), "distinct messages are distinct sentinels")
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"wrapped invariant", fmt.Errorf("ledger: %w", Invariant("negative")), KindInvariant},
		{"not found", NotFound("missing"), KindNotFound},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, KindOf(c.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	err := fmt.Errorf("failed to check in: %w", Conflictf("already checked in on %s", "2025-01-15"))
	assert.Equal(t, "already checked in on 2025-01-15", MessageOf(err))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
}
