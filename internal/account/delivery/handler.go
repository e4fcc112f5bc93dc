package delivery

import (
	"fmt"
	"net/http"

	accountdto "unibox-backend/internal/account/dto"
	"unibox-backend/internal/account/usecase"
	"unibox-backend/internal/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountHandler struct {
	accountUsecase usecase.AccountUsecase
}

func NewAccountHandler(accountUsecase usecase.AccountUsecase) *AccountHandler {
	return &AccountHandler{
		accountUsecase: accountUsecase,
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(errs.HTTPStatus(err), gin.H{"error": errs.PublicMessage(err)})
}

// AuthURL returns the Google consent URL the client redirects to before calling Link.
func (h *AccountHandler) AuthURL(c *gin.Context) {
	state := uuid.New().String()
	c.JSON(http.StatusOK, accountdto.AuthURLResponse{
		URL:   h.accountUsecase.AuthURL(state),
		State: state,
	})
}

func (h *AccountHandler) LinkAccount(c *gin.Context) {
	var req accountdto.LinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	account, err := h.accountUsecase.LinkAccount(c.Request.Context(), c.GetString("userID"), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accountdto.NewAccountResponse(account))
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountUsecase.ListAccounts(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := accountdto.AccountsResponse{Accounts: make([]*accountdto.AccountResponse, 0, len(accounts))}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, accountdto.NewAccountResponse(a))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) DisconnectAccount(c *gin.Context) {
	if err := h.accountUsecase.DisconnectAccount(c.Request.Context(), c.GetString("userID"), c.Param("accountId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account disconnected"})
}
