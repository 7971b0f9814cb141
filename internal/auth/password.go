package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const sha256Prefix = "sha256:"

// ErrCredentialFormat means the configured credential reference is in no
// recognized format. It is a deployment problem, never a bad password.
var ErrCredentialFormat = errors.New("unrecognized credential reference format")

// CredentialVerifier checks a submitted password against the single
// configured credential reference. Supported reference formats:
//
//	sha256:<hex>   hex SHA-256 digest of the plaintext
//	$2a$.. $2b$..  bcrypt hash
//
// Anything else is matched by direct equality only when allowPlain is set;
// that path exists for non-production setups and is off by default.
type CredentialVerifier struct {
	allowPlain bool
}

func NewCredentialVerifier(allowPlain bool) *CredentialVerifier {
	return &CredentialVerifier{allowPlain: allowPlain}
}

func (v *CredentialVerifier) Verify(submitted, reference string) (bool, error) {
	switch {
	case strings.HasPrefix(reference, sha256Prefix):
		digest := sha256.Sum256([]byte(submitted))
		encoded := hex.EncodeToString(digest[:])
		stored := reference[len(sha256Prefix):]
		// Length mismatch is an immediate non-match; beyond that every
		// byte pair is compared regardless of where the first difference
		// occurs, so timing does not leak the matching prefix length.
		return subtle.ConstantTimeCompare([]byte(encoded), []byte(stored)) == 1, nil
	case strings.HasPrefix(reference, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(reference), []byte(submitted))
		if err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return false, nil
			}
			return false, fmt.Errorf("compare bcrypt credential: %w", err)
		}
		return true, nil
	case v.allowPlain:
		return subtle.ConstantTimeCompare([]byte(submitted), []byte(reference)) == 1, nil
	default:
		return false, ErrCredentialFormat
	}
}
