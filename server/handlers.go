package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/metrics"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/store"
	"github.com/chinmay1088/bucks/tokens"
)

type accountView struct {
	Network   networks.Network `json:"network"`
	Address   string           `json:"address"`
	Activated bool             `json:"activated"`
	Link      string           `json:"link"`
}

// TransferRequest is the body of the estimate and transfer endpoints.
// Token is a contract address or symbol, empty for the native currency.
// Amount is in display units.
type TransferRequest struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type estimateView struct {
	Token    tokens.Token      `json:"token"`
	Draft    *account.Draft    `json:"draft"`
	Estimate *account.Estimate `json:"estimate"`
}

type transferView struct {
	Token   tokens.Token     `json:"token"`
	Receipt *account.Receipt `json:"receipt"`
	Link    string           `json:"link"`
}

func (s *Rest) listNetworks(w http.ResponseWriter, r *http.Request) {
	renderResult(w, r, s.Networks.All())
}

func (s *Rest) account(r *http.Request) (account.Account, error) {
	return s.Accounts.Get(r.Context(), chi.URLParam(r, "network"))
}

func (s *Rest) getAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.account(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderResult(w, r, &accountView{
		Network:   acc.Network(),
		Address:   acc.Address(),
		Activated: acc.Activated(),
		Link:      acc.LinkOfAddress(acc.Address()),
	})
}

func (s *Rest) getStatus(w http.ResponseWriter, r *http.Request) {
	acc, err := s.account(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	out, err := acc.GetNetworkStatus(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderResult(w, r, out)
}

func (s *Rest) getBalances(w http.ResponseWriter, r *http.Request) {
	acc, err := s.account(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	out, err := acc.QueryBalances(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderResult(w, r, out)
}

func (s *Rest) getHistory(w http.ResponseWriter, r *http.Request) {
	acc, err := s.account(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	limit := s.HistoryCount
	if q := r.URL.Query().Get("limit"); q != "" {
		if limit, err = strconv.Atoi(q); err != nil {
			renderError(w, r, fmt.Errorf("%w: limit %q", errDecode, q))
			return
		}
	}

	t, err := account.ResolveToken(acc.Network(), s.Tokens, r.URL.Query().Get("token"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	out, err := acc.QueryTokenHistory(r.Context(), t.Address, t.Decimals, limit)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderResult(w, r, out)
}

// prepare decodes a transfer request and builds its draft.
func (s *Rest) prepare(r *http.Request) (account.Account, tokens.Token, *account.Draft, error) {
	acc, err := s.account(r)
	if err != nil {
		return nil, tokens.Token{}, nil, err
	}

	in := new(TransferRequest)
	if err := render.DecodeJSON(r.Body, in); err != nil {
		return nil, tokens.Token{}, nil, fmt.Errorf("%w: %v", errDecode, err)
	}

	t, err := account.ResolveToken(acc.Network(), s.Tokens, in.Token)
	if err != nil {
		return nil, tokens.Token{}, nil, err
	}
	value, err := account.ParseAmount(t, in.Amount)
	if err != nil {
		return nil, tokens.Token{}, nil, err
	}

	draft, err := acc.PopulateTransferToken(r.Context(), t.Address, in.To, value)
	if err != nil {
		return nil, tokens.Token{}, nil, err
	}
	return acc, t, draft, nil
}

func (s *Rest) estimate(w http.ResponseWriter, r *http.Request) {
	acc, t, draft, err := s.prepare(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	est, err := acc.EstimateGas(r.Context(), draft)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderResult(w, r, &estimateView{Token: t, Draft: draft, Estimate: est})
}

func (s *Rest) transfer(w http.ResponseWriter, r *http.Request) {
	acc, t, draft, err := s.prepare(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	network := acc.Network().Key
	receipt, err := acc.Execute(r.Context(), draft)
	metrics.ObserveTransfer(network, err)
	if receipt != nil {
		entry := store.NewEntry(network, t, draft, receipt)
		if jerr := s.Journal.Record(r.Context(), entry); jerr != nil {
			log.ExtractLogger(r.Context()).Errorw("failed to journal transfer", "hash", receipt.Hash, "error", jerr)
		}
	}
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	renderResult(w, r, &transferView{Token: t, Receipt: receipt, Link: acc.LinkOfTransaction(receipt.Hash)})
}

func (s *Rest) listJournal(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		var err error
		if limit, err = strconv.Atoi(q); err != nil {
			renderError(w, r, fmt.Errorf("%w: limit %q", errDecode, q))
			return
		}
	}

	out, err := s.Journal.List(r.Context(), r.URL.Query().Get("network"), limit)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderResult(w, r, out)
}
