package wallet

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/chinmay1088/bucks/chains/tron"
	"github.com/chinmay1088/bucks/crypto"
	"github.com/chinmay1088/bucks/log"
)

const (
	// DefaultIdleDuration locks the wallet after 15 minutes without use.
	DefaultIdleDuration = 15 * time.Minute

	// DefaultNetwork is selected until the user picks another one.
	DefaultNetwork = "ethereum"

	vaultFile   = "wallet.vault"
	sessionFile = "session.json"
	networkFile = "network.txt"
)

var (
	ErrLocked          = errors.New("wallet is locked")
	ErrNoWallet        = errors.New("no wallet found")
	ErrWalletExists    = errors.New("wallet already exists")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// SessionData holds the wallet session information
type SessionData struct {
	Token      string    `json:"token"`
	Mnemonic   string    `json:"mnemonic"`
	Expiration time.Time `json:"expiration"`
}

// Manager handles wallet operations and key derivation
type Manager struct {
	dataDir     string
	vaultPath   string
	sessionPath string
	networkPath string
	idle        time.Duration
	kdf         crypto.KDFParams

	mu       sync.Mutex
	vault    *crypto.Vault
	mnemonic string
}

// Option configures a Manager.
type Option func(*Manager)

// WithKDF overrides the scrypt parameters of new vaults.
func WithKDF(kdf crypto.KDFParams) Option {
	return func(m *Manager) { m.kdf = kdf }
}

// NewManager creates a wallet manager storing its files in dataDir. The
// session expires after idle without use.
func NewManager(dataDir string, idle time.Duration, opts ...Option) *Manager {
	if idle <= 0 {
		idle = DefaultIdleDuration
	}
	m := &Manager{
		dataDir:     dataDir,
		vaultPath:   filepath.Join(dataDir, vaultFile),
		sessionPath: filepath.Join(dataDir, sessionFile),
		networkPath: filepath.Join(dataDir, networkFile),
		idle:        idle,
		kdf:         crypto.DefaultKDF,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// generateSessionToken creates a random session token
func generateSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

// writeSession saves the session with a fresh expiration
func (m *Manager) writeSession(token string) error {
	session := SessionData{
		Token:      token,
		Mnemonic:   m.mnemonic,
		Expiration: time.Now().Add(m.idle),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(m.sessionPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// createSession creates and saves a new session
func (m *Manager) createSession() error {
	token, err := generateSessionToken()
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}
	return m.writeSession(token)
}

// loadSession loads the session if it exists and has not expired, and
// pushes its expiration back.
func (m *Manager) loadSession() bool {
	data, err := os.ReadFile(m.sessionPath)
	if err != nil {
		return false
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		// corrupted
		os.Remove(m.sessionPath)
		return false
	}

	if time.Now().After(session.Expiration) {
		os.Remove(m.sessionPath)
		m.mnemonic = ""
		return false
	}

	m.mnemonic = session.Mnemonic

	if err := m.writeSession(session.Token); err != nil {
		log.Warnw("failed to refresh session", "error", err)
	}
	return true
}

// clearSession removes the current session
func (m *Manager) clearSession() {
	os.Remove(m.sessionPath)
}

// Initialize creates a new wallet with a fresh 24 word mnemonic
func (m *Manager) Initialize(password string) error {
	if m.vaultExists() {
		return ErrWalletExists
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return m.store(mnemonic, password)
}

// ImportFromMnemonic imports a wallet from an existing mnemonic
func (m *Manager) ImportFromMnemonic(mnemonic, password string) error {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return m.store(mnemonic, password)
}

func (m *Manager) store(mnemonic, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vault, err := crypto.NewVaultWithKDF(mnemonic, password, m.kdf)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	if err := os.MkdirAll(m.dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := vault.WriteFile(m.vaultPath); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}

	m.vault = vault
	m.mnemonic = mnemonic

	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Unlock unlocks the wallet with the provided password
func (m *Manager) Unlock(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadSession() {
		return nil
	}

	if m.vault == nil {
		if !m.vaultExists() {
			return ErrNoWallet
		}
		vault, err := crypto.ReadVault(m.vaultPath)
		if err != nil {
			return fmt.Errorf("failed to load vault: %w", err)
		}
		m.vault = vault
	}

	mnemonic, err := m.vault.Decrypt(password)
	if err != nil {
		return err
	}

	m.mnemonic = mnemonic

	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// VerifyPassword decrypts the vault with password whether or not a session
// is live.
func (m *Manager) VerifyPassword(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vault := m.vault
	if vault == nil {
		if !m.vaultExists() {
			return ErrNoWallet
		}
		v, err := crypto.ReadVault(m.vaultPath)
		if err != nil {
			return fmt.Errorf("failed to load vault: %w", err)
		}
		vault = v
		m.vault = v
	}

	_, err := vault.Decrypt(password)
	return err
}

// Lock locks the wallet and clears sensitive data from memory
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mnemonic = ""
	m.clearSession()
}

// IsUnlocked returns whether the wallet is currently unlocked
func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadSession()
}

// GetMnemonic returns the current mnemonic (only if unlocked)
func (m *Manager) GetMnemonic() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loadSession() {
		return "", ErrLocked
	}
	return m.mnemonic, nil
}

func (m *Manager) key(path string) (*ecdsa.PrivateKey, error) {
	mnemonic, err := m.GetMnemonic()
	if err != nil {
		return nil, err
	}
	seed := bip39.NewSeed(mnemonic, "")
	return deriveKey(seed, path)
}

// EvmKey returns the key shared by every EVM network
func (m *Manager) EvmKey() (*ecdsa.PrivateKey, error) {
	key, err := m.key(EvmDerivationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive EVM key: %w", err)
	}
	return key, nil
}

// EvmAddress returns the EVM address
func (m *Manager) EvmAddress() (common.Address, error) {
	key, err := m.EvmKey()
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey), nil
}

// TronKey returns the TRON private key
func (m *Manager) TronKey() (*ecdsa.PrivateKey, error) {
	key, err := m.key(TronDerivationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive TRON key: %w", err)
	}
	return key, nil
}

// TronAddress returns the TRON address
func (m *Manager) TronAddress() (tron.Address, error) {
	key, err := m.TronKey()
	if err != nil {
		return tron.Address{}, err
	}
	return tron.PubkeyToAddress(key.PublicKey), nil
}

func (m *Manager) vaultExists() bool {
	_, err := os.Stat(m.vaultPath)
	return err == nil
}

// VaultExists checks if a vault file exists
func (m *Manager) VaultExists() bool {
	return m.vaultExists()
}

// CurrentNetwork returns the selected network key
func (m *Manager) CurrentNetwork() string {
	data, err := os.ReadFile(m.networkPath)
	if err != nil {
		return DefaultNetwork
	}
	if network := strings.TrimSpace(string(data)); network != "" {
		return network
	}
	return DefaultNetwork
}

// SetNetwork persists the selected network key
func (m *Manager) SetNetwork(key string) error {
	if err := os.MkdirAll(m.dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(m.networkPath, []byte(key), 0600); err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}
	return nil
}
