package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		Limit:      queryLimit(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RunReconcileSweep triggers one reconciliation pass on demand, outside
// the poller's schedule. Useful after a provider outage.
func (s *Server) RunReconcileSweep(c *gin.Context) {
	settled, err := s.reconciler.Sweep(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"settled": settled}})
}
