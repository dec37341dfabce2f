package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	vaultVersion = 2
)

var ErrInvalidPassword = errors.New("invalid password")

// KDFParams are the scrypt parameters a vault was sealed with.
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// DefaultKDF is used for new vaults.
var DefaultKDF = KDFParams{N: ScryptN, R: ScryptR, P: ScryptP}

// Vault is the encrypted mnemonic as stored on disk.
type Vault struct {
	Version int       `json:"version"`
	KDF     KDFParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Data    []byte    `json:"data"`
}

type vaultData struct {
	Mnemonic string `json:"mnemonic"`
}

// NewVault seals mnemonic under password with the default parameters.
func NewVault(mnemonic, password string) (*Vault, error) {
	return NewVaultWithKDF(mnemonic, password, DefaultKDF)
}

// NewVaultWithKDF seals mnemonic under password with explicit scrypt
// parameters.
func NewVaultWithKDF(mnemonic, password string, kdf KDFParams) (*Vault, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt, kdf)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	data, err := json.Marshal(vaultData{Mnemonic: mnemonic})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault data: %w", err)
	}
	defer clearBytes(data)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &Vault{
		Version: vaultVersion,
		KDF:     kdf,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, data, nil),
	}, nil
}

// Decrypt opens the vault. A wrong password yields ErrInvalidPassword.
func (v *Vault) Decrypt(password string) (string, error) {
	kdf := v.KDF
	// vaults written before the parameters were stored
	if kdf.N == 0 {
		kdf = DefaultKDF
	}

	key, err := deriveKey(password, v.Salt, kdf)
	if err != nil {
		return "", err
	}
	defer clearBytes(key)

	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, v.Nonce, v.Data, nil)
	if err != nil {
		return "", ErrInvalidPassword
	}
	defer clearBytes(plaintext)

	var data vaultData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return "", fmt.Errorf("failed to deserialize vault data: %w", err)
	}
	return data.Mnemonic, nil
}

// ValidatePassword reports whether password opens the vault.
func (v *Vault) ValidatePassword(password string) bool {
	_, err := v.Decrypt(password)
	return err == nil
}

// WriteFile stores the vault at path, readable by the owner only.
func (v *Vault) WriteFile(path string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

// ReadVault loads a vault written by WriteFile.
func ReadVault(path string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}
	var v Vault
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}
	return &v, nil
}

func deriveKey(password string, salt []byte, kdf KDFParams) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, kdf.N, kdf.R, kdf.P, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
