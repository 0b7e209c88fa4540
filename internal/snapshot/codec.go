package snapshot

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"time"

	"feeledger/internal/models"
)

// Version is the container format tag. Blobs with any other tag are refused.
const Version = "1.0"

// Blob layout: nonce (16) || auth tag (16) || ciphertext.
const (
	nonceSize = 16
	tagSize   = 16
)

var (
	// ErrCorrupt is returned when the blob cannot be authenticated or parsed.
	ErrCorrupt = errors.New("snapshot: corrupt or tampered blob")
	// ErrVersionMismatch is returned for an unsupported format version.
	ErrVersionMismatch = errors.New("snapshot: unsupported format version")
)

// Data holds the full sets captured in a snapshot. Staff password hashes are
// never serialized.
type Data struct {
	Students     []models.Student     `json:"students"`
	Transactions []models.Transaction `json:"transactions"`
	Staff        []models.Staff       `json:"staff"`
}

// Payload is the plaintext snapshot document.
type Payload struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Data       Data      `json:"data"`
}

// Codec seals and opens snapshot blobs with AES-256-GCM. The key is derived
// from the configured secret with SHA-256.
type Codec struct {
	key [32]byte
}

// NewCodec builds a codec for the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{key: sha256.Sum256([]byte(secret))}
}

// Seal encrypts the payload into an opaque blob.
func (c *Codec) Seal(payload *Payload) ([]byte, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, nonceSize+tagSize+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// Open authenticates, decrypts and parses a blob.
func (c *Codec) Open(blob []byte) (*Payload, error) {
	if len(blob) < nonceSize+tagSize+1 {
		return nil, ErrCorrupt
	}

	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	nonce := blob[:nonceSize]
	tag := blob[nonceSize : nonceSize+tagSize]
	ciphertext := blob[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrCorrupt
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, ErrCorrupt
	}
	if payload.Version != Version {
		return nil, ErrVersionMismatch
	}
	return &payload, nil
}

func (c *Codec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}
