package walletconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chinmay1088/bucks/log"
)

var (
	ErrNotConnected = errors.New("walletconnect session is not connected")
	ErrRejected     = errors.New("walletconnect session rejected by the wallet")
	ErrClosed       = errors.New("walletconnect bridge connection closed")
)

var idCounter int64

// payloadID returns a millisecond timestamp with three digits of counter,
// unique within the process.
func payloadID() int64 {
	n := atomic.AddInt64(&idCounter, 1)
	return time.Now().UnixMilli()*1000 + n%1000
}

// Connector is the dapp side of a WalletConnect v1 session: it pairs with a
// mobile wallet through the bridge and forwards transactions for signing.
type Connector struct {
	bridge  string
	meta    ClientMeta
	chainID int64
	dialer  *websocket.Dialer

	writeMu sync.Mutex

	mu       sync.Mutex
	conn     *websocket.Conn
	session  *Session
	approval chan *rpcMessage
	pending  map[int64]chan *rpcMessage
}

// NewConnector creates a connector for the bridge server. Sessions ask the
// wallet for chainID; zero leaves the choice to the wallet.
func NewConnector(bridge string, meta ClientMeta, chainID int64) *Connector {
	return &Connector{
		bridge:  bridge,
		meta:    meta,
		chainID: chainID,
		dialer:  websocket.DefaultDialer,
		pending: make(map[int64]chan *rpcMessage),
	}
}

// Connected reports whether the wallet approved the session.
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.Connected
}

// Accounts returns the accounts the wallet exposed.
func (c *Connector) Accounts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return append([]string(nil), c.session.Accounts...)
}

// ChainID returns the chain the wallet is on, 0 before approval.
func (c *Connector) ChainID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.ChainID
}

// CreateSession opens the bridge connection and publishes a session request.
// It returns the pairing URI; a session that already exists is reused.
func (c *Connector) CreateSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.session != nil && c.conn != nil {
		uri := c.session.URI()
		c.mu.Unlock()
		return uri, nil
	}
	c.mu.Unlock()

	s, err := NewSession(c.bridge)
	if err != nil {
		return "", err
	}
	endpoint, err := socketURL(c.bridge)
	if err != nil {
		return "", err
	}

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to bridge: %w", err)
	}

	s.HandshakeID = payloadID()
	approval := make(chan *rpcMessage, 1)

	c.mu.Lock()
	c.conn = conn
	c.session = s
	c.approval = approval
	c.pending[s.HandshakeID] = approval
	c.mu.Unlock()

	go c.readLoop(conn, s)

	if err := c.write(conn, socketMessage{Topic: s.ClientID, Type: typeSub, Silent: true}); err != nil {
		c.Close()
		return "", err
	}

	params := sessionRequestParams{PeerID: s.ClientID, PeerMeta: c.meta}
	if c.chainID != 0 {
		chainID := c.chainID
		params.ChainID = &chainID
	}
	req := rpcRequest{
		ID:      s.HandshakeID,
		JSONRPC: "2.0",
		Method:  methodSessionRequest,
		Params:  []interface{}{params},
	}
	if err := c.publish(conn, s, s.HandshakeTopic, req, true); err != nil {
		c.Close()
		return "", err
	}

	log.ExtractLogger(ctx).Debugw("walletconnect session requested", "topic", s.HandshakeTopic, "bridge", c.bridge)
	return s.URI(), nil
}

// WaitForApproval blocks until the wallet answers the session request.
func (c *Connector) WaitForApproval(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.session.Connected {
		c.mu.Unlock()
		return nil
	}
	approval := c.approval
	c.mu.Unlock()

	msg, err := wait(ctx, approval)
	if err != nil {
		return err
	}
	if msg.Error != nil {
		return fmt.Errorf("%w: %v", ErrRejected, msg.Error)
	}

	var params sessionParams
	if err := json.Unmarshal(msg.Result, &params); err != nil {
		return fmt.Errorf("invalid session approval: %w", err)
	}
	if !params.Approved {
		return ErrRejected
	}

	c.mu.Lock()
	c.session.Connected = true
	c.session.PeerID = params.PeerID
	c.session.PeerMeta = params.PeerMeta
	c.session.Accounts = params.Accounts
	c.session.ChainID = params.ChainID
	c.mu.Unlock()

	log.ExtractLogger(ctx).Infow("walletconnect session approved", "accounts", params.Accounts, "chainId", params.ChainID)
	return nil
}

// SendTransaction asks the wallet to sign and broadcast tx and returns the
// transaction hash.
func (c *Connector) SendTransaction(ctx context.Context, tx TxParams) (string, error) {
	c.mu.Lock()
	if c.session == nil || !c.session.Connected || c.conn == nil {
		c.mu.Unlock()
		return "", ErrNotConnected
	}
	conn, s := c.conn, c.session
	id := payloadID()
	ch := make(chan *rpcMessage, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	req := rpcRequest{ID: id, JSONRPC: "2.0", Method: methodSendTransaction, Params: []interface{}{tx}}
	if err := c.publish(conn, s, s.PeerID, req, false); err != nil {
		return "", err
	}

	msg, err := wait(ctx, ch)
	if err != nil {
		return "", err
	}
	if msg.Error != nil {
		return "", fmt.Errorf("wallet rejected transaction: %w", msg.Error)
	}

	var hash string
	if err := json.Unmarshal(msg.Result, &hash); err != nil {
		return "", fmt.Errorf("invalid transaction hash: %w", err)
	}
	return hash, nil
}

// Close ends the session and the bridge connection.
func (c *Connector) Close() error {
	c.mu.Lock()
	conn, s := c.conn, c.session
	c.conn = nil
	c.session = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if s != nil && s.Connected {
		req := rpcRequest{
			ID:      payloadID(),
			JSONRPC: "2.0",
			Method:  methodSessionUpdate,
			Params:  []interface{}{sessionParams{Approved: false}},
		}
		_ = c.publish(conn, s, s.PeerID, req, true)
	}
	return conn.Close()
}

func wait(ctx context.Context, ch chan *rpcMessage) (*rpcMessage, error) {
	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Connector) write(conn *websocket.Conn, msg socketMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to bridge: %w", err)
	}
	return nil
}

func (c *Connector) publish(conn *websocket.Conn, s *Session, topic string, req rpcRequest, silent bool) error {
	plaintext, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	payload, err := Encrypt(plaintext, s.Key)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.write(conn, socketMessage{Topic: topic, Type: typePub, Payload: string(encoded), Silent: silent})
}

func (c *Connector) readLoop(conn *websocket.Conn, s *Session) {
	defer c.drop(conn)

	for {
		var msg socketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Debugw("walletconnect bridge closed", "error", err)
			return
		}
		if msg.Type != typePub || msg.Topic != s.ClientID {
			continue
		}

		var payload EncryptedPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Warnw("walletconnect payload is not json", "error", err)
			continue
		}
		plaintext, err := Decrypt(&payload, s.Key)
		if err != nil {
			log.Warnw("walletconnect payload rejected", "error", err)
			continue
		}

		var rpcMsg rpcMessage
		if err := json.Unmarshal(plaintext, &rpcMsg); err != nil {
			log.Warnw("walletconnect message is not json-rpc", "error", err)
			continue
		}

		if rpcMsg.Method != "" {
			c.handleRequest(s, &rpcMsg)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[rpcMsg.ID]
		delete(c.pending, rpcMsg.ID)
		c.mu.Unlock()
		if ok {
			ch <- &rpcMsg
		}
	}
}

func (c *Connector) handleRequest(s *Session, msg *rpcMessage) {
	if msg.Method != methodSessionUpdate {
		log.Debugw("walletconnect request ignored", "method", msg.Method)
		return
	}

	var params []sessionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil || len(params) == 0 {
		log.Warnw("invalid walletconnect session update", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !params[0].Approved {
		s.Connected = false
		return
	}
	s.Accounts = params[0].Accounts
	s.ChainID = params[0].ChainID
}

// drop forgets conn and fails every request still waiting on it.
func (c *Connector) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.conn {
	case conn:
		c.conn = nil
		if c.session != nil {
			c.session.Connected = false
		}
	case nil:
	default:
		// a newer connection owns the pending requests
		return
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
