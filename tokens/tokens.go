// Package tokens holds the static token list balances are joined against.
// Tokens missing from the list are treated as spam and never displayed.
package tokens

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed tokens.json
var defaultList []byte

// Token is one entry of the token list.
type Token struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// List is an in-memory token list indexed by chain and address.
type List struct {
	tokens    []Token
	byAddress map[string]Token
}

// Default returns the embedded token list.
func Default() *List {
	l, err := Parse(defaultList)
	if err != nil {
		panic(fmt.Sprintf("embedded token list is invalid: %v", err))
	}
	return l
}

// Parse builds a List from a JSON array of tokens.
func Parse(data []byte) (*List, error) {
	var tokens []Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token list: %w", err)
	}
	return New(tokens), nil
}

// New builds a List from tokens.
func New(tokens []Token) *List {
	l := &List{
		tokens:    tokens,
		byAddress: make(map[string]Token, len(tokens)),
	}
	for _, t := range tokens {
		l.byAddress[key(t.ChainID, t.Address)] = t
	}
	return l
}

func key(chainID int64, address string) string {
	return fmt.Sprintf("%d:%s", chainID, strings.ToLower(address))
}

// ByAddress finds a token by contract address, ignoring case.
func (l *List) ByAddress(chainID int64, address string) (Token, bool) {
	t, ok := l.byAddress[key(chainID, address)]
	return t, ok
}

// BySymbol returns the first token on the chain with the symbol.
func (l *List) BySymbol(chainID int64, symbol string) (Token, bool) {
	for _, t := range l.tokens {
		if t.ChainID == chainID && t.Symbol == symbol {
			return t, true
		}
	}
	return Token{}, false
}

// ForChain returns all tokens listed for the chain.
func (l *List) ForChain(chainID int64) []Token {
	var out []Token
	for _, t := range l.tokens {
		if t.ChainID == chainID {
			out = append(out, t)
		}
	}
	return out
}
