package checkinout

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/checkinouts", h.ListLogs)
	r.POST("/ingest", h.Ingest)
}

func (h *Handler) ListLogs(c *gin.Context) {
	var q ListQuery
	if v := c.Query("ssn"); v != "" {
		q.SSN = &v
	}
	if v := c.Query("from"); v != "" {
		q.From = &v
	}
	if v := c.Query("to"); v != "" {
		q.To = &v
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrInvalid("limit must be a non-negative integer"))
			return
		}
		q.Limit = n
	}

	items, total, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// 取り込みの手動トリガ。通常はポーラーのコールバック経由で走る。
func (h *Handler) Ingest(c *gin.Context) {
	res, err := h.svc.IngestFromStaging(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrInternal("staging batch could not be read"))
		return
	}
	c.JSON(http.StatusOK, res)
}
