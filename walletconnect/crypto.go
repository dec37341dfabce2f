package walletconnect

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// KeySize is the length of the symmetric session key.
const KeySize = 32

var (
	ErrBadHMAC    = errors.New("payload hmac mismatch")
	ErrBadPadding = errors.New("invalid payload padding")
)

// EncryptedPayload is the envelope every bridge message carries.
type EncryptedPayload struct {
	Data string `json:"data"`
	HMAC string `json:"hmac"`
	IV   string `json:"iv"`
}

// NewKey returns a random session key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext with AES-256-CBC and authenticates ciphertext||iv
// with HMAC-SHA256 under the same key.
func Encrypt(plaintext, key []byte) (*EncryptedPayload, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return &EncryptedPayload{
		Data: hex.EncodeToString(ciphertext),
		HMAC: hex.EncodeToString(mac(key, ciphertext, iv)),
		IV:   hex.EncodeToString(iv),
	}, nil
}

// Decrypt verifies and opens a payload.
func Decrypt(p *EncryptedPayload, key []byte) ([]byte, error) {
	ciphertext, err := hex.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid payload data: %w", err)
	}
	iv, err := hex.DecodeString(p.IV)
	if err != nil {
		return nil, fmt.Errorf("invalid payload iv: %w", err)
	}
	sum, err := hex.DecodeString(p.HMAC)
	if err != nil {
		return nil, fmt.Errorf("invalid payload hmac: %w", err)
	}

	if !hmac.Equal(sum, mac(key, ciphertext, iv)) {
		return nil, ErrBadHMAC
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != aes.BlockSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrBadPadding
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext, aes.BlockSize)
}

func mac(key, ciphertext, iv []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(ciphertext)
	h.Write(iv)
	return h.Sum(nil)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrBadPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrBadPadding
		}
	}
	return b[:len(b)-n], nil
}
