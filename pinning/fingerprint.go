// Package pinning implements TLS public-key pinning: SPKI fingerprints,
// their verification, and connectors that enforce a pin after the handshake.
package pinning

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// fingerprintHexLen is the length of a hex-encoded SHA-256 digest.
const fingerprintHexLen = sha256.Size * 2

var (
	// ErrFingerprintMismatch is returned when a peer's public key does not hash
	// to the pinned value. Callers should treat it as a possible interception.
	ErrFingerprintMismatch = errors.New("certificate fingerprint mismatch")

	// ErrConnectionFailure wraps every connector failure that is not a mismatch.
	ErrConnectionFailure = errors.New("connection failure")

	// ErrInvalidFingerprint is returned for pins that are not 64 hex characters.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")
)

// MismatchError describes a failed pin check.
type MismatchError struct {
	Host     string
	Expected string
	Actual   string
	// Err is set when the certificate could not be parsed.
	Err error
}

func (e *MismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s for %q: unreadable certificate: %v", ErrFingerprintMismatch, e.Host, e.Err)
	}
	return fmt.Sprintf("%s for %q: expected %s, got %s", ErrFingerprintMismatch, e.Host, e.Expected, e.Actual)
}

// Is reports ErrFingerprintMismatch as the error kind.
func (e *MismatchError) Is(target error) bool {
	return target == ErrFingerprintMismatch
}

func (e *MismatchError) Unwrap() error {
	return e.Err
}

// Fingerprint returns the lowercase hex SHA-256 of the certificate's public key
// re-encoded as DER SubjectPublicKeyInfo.
func Fingerprint(certDER []byte) (string, error) {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return "", fmt.Errorf("parse certificate: %w", err)
	}

	spki, err := x509.MarshalPKIXPublicKey(cert.PublicKey)
	if err != nil {
		return "", fmt.Errorf("encode public key: %w", err)
	}

	return PublicKeyFingerprint(spki), nil
}

// PublicKeyFingerprint hashes a DER SubjectPublicKeyInfo blob.
func PublicKeyFingerprint(spkiDER []byte) string {
	sum := sha256.Sum256(spkiDER)
	return hex.EncodeToString(sum[:])
}

// Verify checks certDER against the expected fingerprint. A certificate that
// cannot be parsed fails the check.
func Verify(certDER []byte, expected string) error {
	actual, err := Fingerprint(certDER)
	if err != nil {
		return &MismatchError{Expected: expected, Err: err}
	}

	if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
		return &MismatchError{Expected: expected, Actual: actual}
	}

	return nil
}

// NormalizeFingerprint turns a user-supplied pin ("AB:CD:..." or mixed case)
// into the 64-character lowercase form Verify compares against.
func NormalizeFingerprint(s string) (string, error) {
	fp := strings.ToLower(strings.TrimSpace(s))
	fp = strings.ReplaceAll(fp, ":", "")

	if len(fp) != fingerprintHexLen {
		return "", fmt.Errorf("%w: want %d hex characters, got %d", ErrInvalidFingerprint, fingerprintHexLen, len(fp))
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFingerprint, err)
	}

	return fp, nil
}
