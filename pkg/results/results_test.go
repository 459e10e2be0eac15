package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationResult(t *testing.T) {
	ok := SuccessResult[int, error](7)
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsFailure())
	assert.Equal(t, 7, *ok.Success)

	fail := FailureResult[int, error](errors.New("roster too small"))
	assert.True(t, fail.IsFailure())
	assert.False(t, fail.IsSuccess())
	assert.EqualError(t, *fail.Failure, "roster too small")

	var zero OperationResult[int, error]
	assert.False(t, zero.IsSuccess())
	assert.False(t, zero.IsFailure())
}
