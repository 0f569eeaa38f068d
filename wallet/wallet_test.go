package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func TestFromSecretBase58(t *testing.T) {
	key := randomKey(t)

	kp, err := FromSecret(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), kp.PublicKey())
	assert.Equal(t, key.PublicKey().String(), kp.Address())
}

func TestFromSecretJSONArray(t *testing.T) {
	key := randomKey(t)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	arr, err := json.Marshal(ints)
	require.NoError(t, err)

	kp, err := FromSecret(string(arr))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), kp.PublicKey())

	// Leading whitespace is tolerated.
	kp, err = FromSecret("  " + string(arr) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), kp.PublicKey())
}

func TestFromSecretErrors(t *testing.T) {
	_, err := FromSecret("not a key")
	assert.ErrorContains(t, err, "base58")

	_, err = FromSecret("[1,2,3]")
	assert.ErrorContains(t, err, "length")

	_, err = FromSecret("[not json]")
	assert.ErrorContains(t, err, "keypair JSON")

	_, err = FromSecret("[300,1,2]")
	assert.ErrorContains(t, err, "key byte")
}

func TestFromBytes(t *testing.T) {
	key := randomKey(t)

	kp, err := FromBytes(key)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), kp.PublicKey())
	assert.Equal(t, solana.PrivateKey(key), kp.PrivateKey())

	_, err = FromBytes(key[:32])
	assert.ErrorContains(t, err, "length")
}

func TestFromFile(t *testing.T) {
	key := randomKey(t)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	kp, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), kp.PublicKey())

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
