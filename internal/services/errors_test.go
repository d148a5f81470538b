package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", notFound(MsgChatNotFound))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindBadRequest, KindOf(badRequest(MsgMissingFields)))
	assert.Equal(t, KindUnauthorized, KindOf(unauthorized()))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestPublicMessage_HidesInternalCause(t *testing.T) {
	cause := errors.New("password authentication failed for user report")
	err := internal("list reports", cause)

	assert.Equal(t, "Internal Server Error", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list reports")
	assert.Equal(t, "Chat not found", PublicMessage(notFound(MsgChatNotFound)))
	assert.Equal(t, "Internal Server Error", PublicMessage(errors.New("raw")))
}
