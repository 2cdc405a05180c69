package summary

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/summaries", h.ListSummaries)
}

// 現在のステージングスナップショットに対する日次集計を返す。
func (h *Handler) ListSummaries(c *gin.Context) {
	resp, err := h.svc.FromStaging()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": "failed to reduce staging snapshot"})
		return
	}
	if resp == nil {
		resp = []DailySummary{}
	}
	c.JSON(http.StatusOK, resp)
}
