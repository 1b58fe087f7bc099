package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *BusinessError
		want string
	}{
		{
			name: "message only",
			err:  WrapLoanNotFound("l1"),
			want: "LOAN_NOT_FOUND: Loan with ID l1 not found (loan not found)",
		},
		{
			name: "with reasons",
			err:  WrapValidation([]string{"amount is required", "term_months is required"}),
			want: "VALIDATION_FAILED: Request validation failed: amount is required; term_months is required (validation failed)",
		},
		{
			name: "without cause",
			err:  NewBusinessError("X", KindInternal, "boom", nil),
			want: "X: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", WrapCoSignersPending("l1"))

	assert.Equal(t, KindStateConflict, KindOf(wrapped))
	assert.Equal(t, KindConcurrency, KindOf(WrapConcurrencyConflict("withdraw", 5)))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.True(t, errors.Is(wrapped, ErrCoSignersPending))
}

func TestReasonsOf(t *testing.T) {
	err := fmt.Errorf("submit: %w", WrapNotEligible("m1", []string{"no savings"}))

	assert.Equal(t, []string{"no savings"}, ReasonsOf(err))
	assert.Nil(t, ReasonsOf(errors.New("plain")))
	assert.True(t, errors.Is(err, ErrNotEligible))
}

func TestWrapDatabaseError_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDatabaseError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, err.Kind)
}
