// internal/secret/secret.go
//
// Protected configuration strings.
//
// Context
// -------
// Plugin metadata may carry its own database type and connection string.
// When `security.protect_data` is on, those overrides are stored encrypted
// and must be decrypted with the process-wide secret key before use.  The
// process defaults in `conf/global.yaml` are plaintext and never pass
// through here.
//
// Format
// ------
//
//	enc:v1:<base64(nonce || AES-256-GCM sealed box)>
//
// The `enc:v1:` prefix is optional on input so legacy rows decrypt too.
// The AES key is derived from the secret key string with HKDF-SHA256 and
// lives in a memguard enclave; it is opened only for one seal or open.
//
// Notes
// -----
//   - A Resolver is safe for concurrent use.
//   - Decryption failures are returned, never defaulted.
//   - Oxford commas, two spaces after periods.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"
)

const (
	// EncPrefix marks canonical ciphertext.
	EncPrefix = "enc:v1:"

	keySize  = 32 // AES-256
	hkdfInfo = "adept plugin secret"
)

// ErrDecryption is the sentinel wrapped by every *DecryptionError.
var ErrDecryption = errors.New("secret: decryption failed")

// ErrNoKey is returned by New when the secret key is empty.
var ErrNoKey = errors.New("secret: secret key is empty")

// DecryptionError reports a malformed or unauthenticated ciphertext.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("secret: decrypt: %s: %v", e.Reason, e.Err)
	}
	return "secret: decrypt: " + e.Reason
}

func (e *DecryptionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDecryption, e.Err}
	}
	return []error{ErrDecryption}
}

// Resolver decrypts protected strings with one process-wide key.  Zero value
// is invalid; construct with New.
type Resolver struct {
	key *memguard.Enclave
}

// New derives the AES key from secretKey and seals it in an enclave.
func New(secretKey string) (*Resolver, error) {
	if secretKey == "" {
		return nil, ErrNoKey
	}
	kdf := hkdf.New(sha256.New, []byte(secretKey), nil, []byte(hkdfInfo))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("secret: derive key: %w", err)
	}
	// NewEnclave wipes key after copying it.
	return &Resolver{key: memguard.NewEnclave(key)}, nil
}

// Resolve returns raw unchanged when protected is false, otherwise the
// decrypted plaintext.
func (r *Resolver) Resolve(raw string, protected bool) (string, error) {
	if !protected {
		return raw, nil
	}
	return r.Decrypt(raw)
}

// Decrypt reverses Encrypt.
func (r *Resolver) Decrypt(stored string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, EncPrefix))
	if err != nil {
		return "", &DecryptionError{Reason: "decode base64", Err: err}
	}

	gcm, done, err := r.aead()
	if err != nil {
		return "", err
	}
	defer done()

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return "", &DecryptionError{Reason: "ciphertext too short"}
	}
	plain, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authenticate", Err: err}
	}
	return string(plain), nil
}

// Encrypt seals plain and returns the canonical enc:v1: form.
func (r *Resolver) Encrypt(plain string) (string, error) {
	gcm, done, err := r.aead()
	if err != nil {
		return "", err
	}
	defer done()

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return EncPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// aead opens the enclave and builds a GCM cipher.  The returned func must be
// called to wipe the plaintext key.
func (r *Resolver) aead() (cipher.AEAD, func(), error) {
	buf, err := r.key.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("secret: open key enclave: %w", err)
	}
	block, err := aes.NewCipher(buf.Bytes())
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("secret: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("secret: gcm: %w", err)
	}
	return gcm, buf.Destroy, nil
}
