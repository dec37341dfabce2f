package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/api"
	"github.com/chinmay1088/bucks/chains"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/wallet"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errDecode marks request bodies that could not be read.
var errDecode = errors.New("invalid request body")

func statusOf(err error) int {
	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, account.ErrUnknownNetwork), errors.Is(err, account.ErrUnknownToken):
		return http.StatusNotFound
	case errors.Is(err, account.ErrInvalidAddress),
		errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, chains.ErrNegativeAmount),
		errors.Is(err, chains.ErrTooPrecise),
		errors.Is(err, chains.ErrMalformedAmount),
		errors.Is(err, chains.ErrAmountTooLarge),
		errors.Is(err, errDecode):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrNotActivated):
		return http.StatusUnprocessableEntity
	case errors.Is(err, account.ErrNotConnected), errors.Is(err, account.ErrWrongChain):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrLocked), errors.Is(err, wallet.ErrNoWallet), errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errForbiddenHost), errors.Is(err, errForbiddenOrigin):
		return http.StatusForbidden
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// renderError renders err as {"error": "..."} with the status it maps to.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	log.AddFields(r.Context(), "error", err.Error())

	render.Status(r, statusOf(err))
	render.JSON(w, r, &errorResponse{Error: err.Error()})
}

func renderResult(w http.ResponseWriter, r *http.Request, result interface{}) {
	render.JSON(w, r, result)
}
