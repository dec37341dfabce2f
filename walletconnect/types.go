package walletconnect

import (
	"encoding/json"
	"fmt"
)

// Bridge message types
const (
	typePub = "pub"
	typeSub = "sub"
)

// JSON-RPC methods exchanged with the peer
const (
	methodSessionRequest  = "wc_sessionRequest"
	methodSessionUpdate   = "wc_sessionUpdate"
	methodSendTransaction = "eth_sendTransaction"
)

type socketMessage struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Silent  bool   `json:"silent"`
}

type rpcRequest struct {
	ID      int64         `json:"id"`
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// rpcMessage is either a request from the peer or a response to one of ours.
type rpcMessage struct {
	ID      int64           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type sessionRequestParams struct {
	PeerID   string     `json:"peerId"`
	PeerMeta ClientMeta `json:"peerMeta"`
	ChainID  *int64     `json:"chainId"`
}

type sessionParams struct {
	Approved  bool        `json:"approved"`
	ChainID   int64       `json:"chainId"`
	NetworkID int64       `json:"networkId"`
	Accounts  []string    `json:"accounts"`
	PeerID    string      `json:"peerId,omitempty"`
	PeerMeta  *ClientMeta `json:"peerMeta,omitempty"`
}

// TxParams is an eth_sendTransaction request. Quantities are 0x-prefixed hex.
type TxParams struct {
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Data     string `json:"data,omitempty"`
	Value    string `json:"value,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}
