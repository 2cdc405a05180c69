package users

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ store *Store }

func RegisterRoutes(r gin.IRoutes, conn *sql.DB) {
	h := &Handler{store: NewStore(conn)}
	r.GET("/users", h.ListUsers)
}

func (h *Handler) ListUsers(c *gin.Context) {
	resp, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
