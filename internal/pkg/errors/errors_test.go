package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithMessage(t *testing.T) {
	err := fmt.Errorf("signup: %w", WithMessage(ErrConflict, "User Already Present With this Email"))
	require.True(t, IsConflict(err))
	require.False(t, IsNotFound(err))
	msg, ok := Message(err)
	require.True(t, ok)
	require.Equal(t, "User Already Present With this Email", msg)

	_, ok = Message(errors.New("plain"))
	require.False(t, ok)
}
