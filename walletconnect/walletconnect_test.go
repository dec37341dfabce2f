package walletconnect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	for _, msg := range []string{"", "a", strings.Repeat("x", 16), `{"id":1,"jsonrpc":"2.0","method":"wc_sessionRequest"}`} {
		p, err := Encrypt([]byte(msg), key)
		require.NoError(t, err)

		out, err := Decrypt(p, key)
		require.NoError(t, err)
		assert.Equal(t, msg, string(out))
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	p, err := Encrypt([]byte("hello"), key)
	require.NoError(t, err)

	tampered := *p
	tampered.Data = strings.Repeat("0", len(p.Data))
	_, err = Decrypt(&tampered, key)
	assert.ErrorIs(t, err, ErrBadHMAC)

	other, err := NewKey()
	require.NoError(t, err)
	_, err = Decrypt(p, other)
	assert.ErrorIs(t, err, ErrBadHMAC)
}

func TestURIRoundTrip(t *testing.T) {
	s, err := NewSession("https://bridge.walletconnect.org")
	require.NoError(t, err)

	uri := s.URI()
	assert.True(t, strings.HasPrefix(uri, "wc:"+s.HandshakeTopic+"@1?bridge=https%3A%2F%2Fbridge.walletconnect.org&key="))

	parsed, err := ParseURI(uri)
	require.NoError(t, err)
	assert.Equal(t, s.HandshakeTopic, parsed.HandshakeTopic)
	assert.Equal(t, s.Bridge, parsed.Bridge)
	assert.Equal(t, s.Key, parsed.Key)

	_, err = ParseURI("wc:topic@2?bridge=x&key=00")
	assert.Error(t, err)
}

func TestSocketURL(t *testing.T) {
	u, err := socketURL("https://bridge.walletconnect.org")
	require.NoError(t, err)
	assert.Equal(t, "wss://bridge.walletconnect.org", u)

	u, err = socketURL("http://127.0.0.1:5001")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:5001", u)

	_, err = socketURL("ftp://x")
	assert.Error(t, err)
}

const walletPeer = "wallet-peer"

// fakeBridge relays for a wallet that approves every session and answers
// eth_sendTransaction with a fixed hash.
func fakeBridge(t *testing.T, c *Connector, sent chan<- TxParams) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			var msg socketMessage
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != typePub {
				continue
			}

			c.mu.Lock()
			s := c.session
			c.mu.Unlock()
			if s == nil {
				// closing
				continue
			}
			key, clientID := s.Key, s.ClientID

			var payload EncryptedPayload
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
			plaintext, err := Decrypt(&payload, key)
			require.NoError(t, err)

			var req struct {
				ID     int64             `json:"id"`
				Method string            `json:"method"`
				Params []json.RawMessage `json:"params"`
			}
			require.NoError(t, json.Unmarshal(plaintext, &req))

			var result interface{}
			switch req.Method {
			case methodSessionRequest:
				var params sessionRequestParams
				require.NoError(t, json.Unmarshal(req.Params[0], &params))
				chainID := int64(1)
				if params.ChainID != nil {
					chainID = *params.ChainID
				}
				result = sessionParams{
					Approved: true,
					ChainID:  chainID,
					Accounts: []string{"0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6"},
					PeerID:   walletPeer,
				}
			case methodSendTransaction:
				assert.Equal(t, walletPeer, msg.Topic)
				var tx TxParams
				require.NoError(t, json.Unmarshal(req.Params[0], &tx))
				sent <- tx
				result = "0xfeed"
			default:
				continue
			}

			resp, _ := json.Marshal(map[string]interface{}{"id": req.ID, "jsonrpc": "2.0", "result": result})
			enc, err := Encrypt(resp, key)
			require.NoError(t, err)
			encoded, _ := json.Marshal(enc)
			require.NoError(t, ws.WriteJSON(socketMessage{Topic: clientID, Type: typePub, Payload: string(encoded)}))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnectorFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewConnector("", ClientMeta{Name: "bucks"}, 137)
	sent := make(chan TxParams, 1)
	srv := fakeBridge(t, c, sent)
	c.bridge = srv.URL

	_, err := c.SendTransaction(ctx, TxParams{})
	assert.ErrorIs(t, err, ErrNotConnected)

	uri, err := c.CreateSession(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "wc:"))

	require.NoError(t, c.WaitForApproval(ctx))
	assert.True(t, c.Connected())
	assert.Equal(t, int64(137), c.ChainID())
	assert.Equal(t, []string{"0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6"}, c.Accounts())

	again, err := c.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, uri, again)

	hash, err := c.SendTransaction(ctx, TxParams{
		From:  "0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6",
		To:    "0x0000000000000000000000000000000000000001",
		Value: "0x1",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", hash)
	assert.Equal(t, "0x1", (<-sent).Value)

	require.NoError(t, c.Close())
	assert.False(t, c.Connected())
}
