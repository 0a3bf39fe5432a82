package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := ServiceUnavailableError(ErrServiceUnavailable, cause)

	assert.Equal(t, http.StatusServiceUnavailable, appErr.Code)
	assert.True(t, appErr.Retryable)
	assert.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("create order: %w", appErr)
	assert.Same(t, appErr, GetAppError(wrapped))
	assert.Nil(t, GetAppError(cause))

	assert.False(t, BadRequestError("bad", nil).Retryable)
	assert.Equal(t, http.StatusPaymentRequired, PaymentRequiredError("pay", nil).Code)
}
