// SPDX-License-Identifier: Apache-2.0
package signing

import (
	"fmt"
	"os"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
	"github.com/ProtonMail/gopenpgp/v3/profile"
)

// ParsePublicKey accepts an armored or binary OpenPGP public key
func ParsePublicKey(data []byte) (*crypto.Key, error) {
	key, err := crypto.NewKeyFromArmored(string(data))
	if err != nil {
		key, err = crypto.NewKey(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
	}
	return key, nil
}

// LoadPublicKey reads a public key file
func LoadPublicKey(path string) (*crypto.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	return ParsePublicKey(data)
}

// VerifyDetached checks a detached signature over data. Armored and
// binary signatures are both accepted.
func VerifyDetached(data, signature []byte, publicKey *crypto.Key) error {
	pgp := crypto.PGPWithProfile(profile.RFC4880())

	verifier, err := pgp.Verify().
		VerificationKey(publicKey).
		New()
	if err != nil {
		return fmt.Errorf("failed to create verifier: %w", err)
	}

	result, err := verifier.VerifyDetached(data, signature, crypto.Armor)
	if err != nil {
		result, err = verifier.VerifyDetached(data, signature, crypto.Bytes)
		if err != nil {
			return fmt.Errorf("signature verification failed (tried both armored and binary formats): %w", err)
		}
	}

	if sigErr := result.SignatureError(); sigErr != nil {
		return fmt.Errorf("signature error: %w", sigErr)
	}
	return nil
}
