// ABOUTME: Tests for the in-memory remote backend.
// ABOUTME: Runs the shared contract and checks multi-client data sharing.
package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendContract(t *testing.T) {
	runBackendContract(t, func(t *testing.T) Backend {
		return NewMemoryBackend()
	})
}

func TestMemoryClientsShareData(t *testing.T) {
	ctx := context.Background()
	laptop := NewMemoryBackend()
	phone := laptop.Client()

	sess, err := laptop.CreateAccount(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, laptop.InsertRow(ctx, testRow(sess.AccountID, "laptop")))

	_, ok := phone.CurrentSession()
	assert.False(t, ok, "sessions are per client")

	_, err = phone.SignIn(ctx, "ALICE@example.com", "pw")
	require.NoError(t, err)
	got, err := phone.SelectRow(ctx, sess.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "cipher-laptop", got.Ciphertext)
}
