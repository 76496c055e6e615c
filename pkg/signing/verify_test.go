// SPDX-License-Identifier: Apache-2.0
package signing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) (*crypto.Key, string) {
	t.Helper()
	pgp := crypto.PGP()
	key, err := pgp.KeyGeneration().
		AddUserId("Onboard Release", "release@example.com").
		New().
		GenerateKey()
	require.NoError(t, err)

	pub, err := key.ToPublic()
	require.NoError(t, err)
	armored, err := pub.Armor()
	require.NoError(t, err)
	return key, armored
}

func sign(t *testing.T, key *crypto.Key, data []byte) []byte {
	t.Helper()
	signer, err := crypto.PGP().Sign().SigningKey(key).Detached().New()
	require.NoError(t, err)
	defer signer.ClearPrivateParams()

	sig, err := signer.Sign(data, crypto.Armor)
	require.NoError(t, err)
	return sig
}

func TestVerifyDetached(t *testing.T) {
	key, armoredPub := newTestKey(t)
	data := []byte("abc123  onboard-backend-x86_64.xz\n")
	sig := sign(t, key, data)

	keyPath := filepath.Join(t.TempDir(), "signing-key.asc")
	require.NoError(t, os.WriteFile(keyPath, []byte(armoredPub), 0644))

	pub, err := LoadPublicKey(keyPath)
	require.NoError(t, err)

	assert.NoError(t, VerifyDetached(data, sig, pub))
	assert.Error(t, VerifyDetached([]byte("tampered"), sig, pub))
}

func TestVerifyDetachedWrongKey(t *testing.T) {
	key, _ := newTestKey(t)
	_, otherPub := newTestKey(t)
	data := []byte("payload")

	pub, err := ParsePublicKey([]byte(otherPub))
	require.NoError(t, err)
	assert.Error(t, VerifyDetached(data, sign(t, key, data), pub))
}

func TestParsePublicKeyGarbage(t *testing.T) {
	_, err := ParsePublicKey([]byte("not a key"))
	assert.Error(t, err)

	_, err = LoadPublicKey(filepath.Join(t.TempDir(), "missing.asc"))
	assert.Error(t, err)
}
