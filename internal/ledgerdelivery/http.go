// Package ledgerdelivery manages delivery layer of balance changes.
package ledgerdelivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Success messages.
const (
	MsgDeposited   = "successfully deposited"
	MsgWithdrawn   = "successfully withdrawn"
	MsgTransferred = "successfully transferred"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Deposit(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error)
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) Handler {
	return Handler{service: ls}
}

type dataAccount struct {
	Message string         `json:"message"`
	Account domain.Account `json:"account"`
}

type dataTransfer struct {
	Message string         `json:"message"`
	Source  domain.Account `json:"source"`
	Target  domain.Account `json:"target"`
}

type accountURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type transferURI struct {
	ID     int64 `uri:"id" binding:"required,min=1"`
	Target int64 `uri:"target" binding:"required,min=1"`
}

// amountRequest accepts the amount as a JSON number or a numeric string.
type amountRequest struct {
	Amount json.Number `json:"amount" binding:"required,money"`
}

func writeError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrSameAccount):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, errorspkg.ErrUnavailable):
		l.Warn().Err(err).Send()
		gctx.JSON(http.StatusServiceUnavailable, web.Error(errorspkg.ErrUnavailable))
	default:
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

// bind binds the uri and the amount of the request, writing 400 on failure.
func bind(gctx *gin.Context, uri any) (decimal.Decimal, bool) {
	var req amountRequest

	err := gctx.ShouldBindUri(uri)
	if err == nil {
		err = gctx.ShouldBindJSON(&req)
	}

	if err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindingErrorMsg(err)})

		return decimal.Decimal{}, false
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))
		return decimal.Decimal{}, false
	}

	return amount, true
}

// Deposit handles http request to add money to the account.
func (h *Handler) Deposit(gctx *gin.Context) {
	var uri accountURI

	amount, ok := bind(gctx, &uri)
	if !ok {
		return
	}

	account, err := h.service.Deposit(gctx.Request.Context(), uri.ID, amount)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataAccount{Message: MsgDeposited, Account: account}})
}

// Withdraw handles http request to take money from the account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	var uri accountURI

	amount, ok := bind(gctx, &uri)
	if !ok {
		return
	}

	account, err := h.service.Withdraw(gctx.Request.Context(), uri.ID, amount)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataAccount{Message: MsgWithdrawn, Account: account}})
}

// Transfer handles http request to move money between two accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	var uri transferURI

	amount, ok := bind(gctx, &uri)
	if !ok {
		return
	}

	res, err := h.service.Transfer(gctx.Request.Context(), domain.TransferParams{
		SourceID: uri.ID,
		TargetID: uri.Target,
		Amount:   amount,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataTransfer{
		Message: MsgTransferred,
		Source:  res.Source,
		Target:  res.Target,
	}})
}
