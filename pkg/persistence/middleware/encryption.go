package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/ports"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// sealedPrefix marks an encrypted answer. Version 2 binds each ciphertext to its
// session and slot through the GCM additional data.
const sealedPrefix = "enc:v2:"

// ErrKeySize is returned for keys that are not KeySize bytes long.
var ErrKeySize = fmt.Errorf("encryption key must be %d bytes (AES-256)", KeySize)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new data.
	ActiveKey []byte

	// FallbackKeys are tried when the active key fails, for key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware encrypts every answer with AES-GCM before it reaches the store.
// Progress fields (exercise, step, hints, score) stay readable for listing and statistics.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != KeySize {
		return nil, ErrKeySize
	}
	for i, k := range config.FallbackKeys {
		if len(k) != KeySize {
			return nil, fmt.Errorf("fallback key %d: %w", i, ErrKeySize)
		}
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// ParseKey decodes a base64 (standard or URL) or hex encoded key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, dec := range []func(string) ([]byte, error){
		base64.StdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		hex.DecodeString,
	} {
		if key, err := dec(s); err == nil && len(key) == KeySize {
			return key, nil
		}
	}
	return nil, ErrKeySize
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	sealed := session.Snapshot()
	for i, answer := range sealed.Answers {
		if answer == "" {
			continue
		}
		ciphertext, err := encrypt([]byte(answer), slotAAD(sessionID, i), m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt answer %d: %w", i, err)
		}
		sealed.Answers[i] = sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	}
	return m.next.Save(ctx, sessionID, sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	sealed, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	plain := sealed.Snapshot()
	for i, answer := range plain.Answers {
		if answer == "" {
			continue
		}
		encoded, ok := strings.CutPrefix(answer, sealedPrefix)
		if !ok {
			// Fail secure: a plaintext answer means the store was written without encryption.
			return nil, fmt.Errorf("answer %d of session '%s' is not encrypted", i, sessionID)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode answer %d: %w", i, err)
		}
		text, err := decryptWithRotation(ciphertext, slotAAD(sessionID, i), m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt answer %d: %w", i, err)
		}
		plain.Answers[i] = string(text)
	}
	return plain, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// slotAAD ties a sealed answer to one slot of one session, so a ciphertext copied
// elsewhere in the store fails authentication.
func slotAAD(sessionID string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%d", sessionID, index))
}

func encrypt(plaintext, aad, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func decryptWithRotation(ciphertext, aad, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, aad, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, aad, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
