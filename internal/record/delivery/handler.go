package delivery

import (
	"fmt"
	"net/http"

	"unibox-backend/internal/errs"
	recorddto "unibox-backend/internal/record/dto"
	"unibox-backend/internal/record/usecase"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	recordUsecase usecase.RecordUsecase
}

func NewRecordHandler(recordUsecase usecase.RecordUsecase) *RecordHandler {
	return &RecordHandler{
		recordUsecase: recordUsecase,
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(errs.HTTPStatus(err), gin.H{"error": errs.PublicMessage(err)})
}

func bindQuery(c *gin.Context) (recorddto.QueryParams, error) {
	var params recorddto.QueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return params, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return params, nil
}

// Aggregate merges the principal's accounts into one page.
func (h *RecordHandler) Aggregate(c *gin.Context) {
	userID := c.GetString("userID")
	params, err := bindQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := params.ToQuery()
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.recordUsecase.Aggregate(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Search is Aggregate with a mandatory search term.
func (h *RecordHandler) Search(c *gin.Context) {
	if c.Query("q") == "" {
		respondError(c, fmt.Errorf("%w: q is required", errs.ErrValidation))
		return
	}
	h.Aggregate(c)
}

func (h *RecordHandler) Stats(c *gin.Context) {
	userID := c.GetString("userID")
	stats, err := h.recordUsecase.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recorddto.StatsResponse{Accounts: stats})
}

func (h *RecordHandler) ListForAccount(c *gin.Context) {
	userID := c.GetString("userID")
	params, err := bindQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := params.ToQuery()
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.recordUsecase.ListForAccount(c.Request.Context(), userID, c.Param("accountId"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RecordHandler) SearchForAccount(c *gin.Context) {
	userID := c.GetString("userID")
	params, err := bindQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := params.ToQuery()
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.recordUsecase.SearchForAccount(c.Request.Context(), userID, c.Param("accountId"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RecordHandler) GetItem(c *gin.Context) {
	userID := c.GetString("userID")
	item, err := h.recordUsecase.GetItem(c.Request.Context(), userID, c.Param("accountId"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Sync refreshes the mirror of one account. An empty body uses the default item count.
func (h *RecordHandler) Sync(c *gin.Context) {
	userID := c.GetString("userID")
	var req recorddto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("%w: %v", errs.ErrValidation, err))
			return
		}
	}

	outcome, err := h.recordUsecase.Sync(c.Request.Context(), userID, c.Param("accountId"), req.MaxItems)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *RecordHandler) CreateItem(c *gin.Context) {
	userID := c.GetString("userID")
	var req recorddto.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	item, err := h.recordUsecase.CreateItem(c.Request.Context(), userID, c.Param("accountId"), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *RecordHandler) UpdateItem(c *gin.Context) {
	userID := c.GetString("userID")
	var req recorddto.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	item, err := h.recordUsecase.UpdateItem(c.Request.Context(), userID, c.Param("accountId"), c.Param("itemId"), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *RecordHandler) DeleteItem(c *gin.Context) {
	userID := c.GetString("userID")
	err := h.recordUsecase.DeleteItem(c.Request.Context(), userID, c.Param("accountId"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}
