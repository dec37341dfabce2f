package walletconnect

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Version is the WalletConnect protocol version spoken over the bridge.
const Version = 1

// ClientMeta describes this wallet to the peer.
type ClientMeta struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
}

// Session is the state of one pairing.
type Session struct {
	Bridge         string
	Key            []byte
	ClientID       string
	HandshakeTopic string
	HandshakeID    int64

	PeerID    string
	PeerMeta  *ClientMeta
	Accounts  []string
	ChainID   int64
	Connected bool
}

// NewSession generates the keys and topics of a new pairing.
func NewSession(bridge string) (*Session, error) {
	key, err := NewKey()
	if err != nil {
		return nil, err
	}
	return &Session{
		Bridge:         bridge,
		Key:            key,
		ClientID:       uuid.NewString(),
		HandshakeTopic: uuid.NewString(),
	}, nil
}

// URI returns the wc: pairing URI shown to the user (usually as a QR code).
func (s *Session) URI() string {
	return fmt.Sprintf("wc:%s@%d?bridge=%s&key=%s",
		s.HandshakeTopic, Version, url.QueryEscape(s.Bridge), hex.EncodeToString(s.Key))
}

// ParseURI decodes a pairing URI.
func ParseURI(uri string) (*Session, error) {
	rest, ok := strings.CutPrefix(uri, "wc:")
	if !ok {
		return nil, fmt.Errorf("invalid walletconnect uri: %s", uri)
	}
	path, rawQuery, _ := strings.Cut(rest, "?")
	topic, version, ok := strings.Cut(path, "@")
	if !ok || version != fmt.Sprint(Version) || topic == "" {
		return nil, fmt.Errorf("unsupported walletconnect uri: %s", uri)
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid walletconnect uri query: %w", err)
	}
	key, err := hex.DecodeString(q.Get("key"))
	if err != nil || len(key) != KeySize {
		return nil, fmt.Errorf("invalid walletconnect key")
	}
	if q.Get("bridge") == "" {
		return nil, fmt.Errorf("missing walletconnect bridge")
	}
	return &Session{Bridge: q.Get("bridge"), Key: key, HandshakeTopic: topic}, nil
}

// socketURL maps the bridge's http(s) URL to its websocket endpoint.
func socketURL(bridge string) (string, error) {
	u, err := url.Parse(bridge)
	if err != nil {
		return "", fmt.Errorf("invalid bridge url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported bridge scheme %q", u.Scheme)
	}
	return u.String(), nil
}
