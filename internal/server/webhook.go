package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	chargedomain "github.com/pixelpay/topup/internal/charge/domain"
	"go.uber.org/zap"
)

type webhookEvent struct {
	Key  string `json:"key"`
	Data struct {
		ID     string `json:"id"`
		Object string `json:"object"`
	} `json:"data"`
}

// PaymentWebhook handles provider event notifications. The payload is
// treated as a hint only: the charge is re-fetched from the provider
// before anything settles, so a forged body cannot complete a
// transaction. The provider always gets a 200 so it stops retrying;
// reconciliation covers anything we drop here.
func (s *Server) PaymentWebhook(c *gin.Context) {
	var event webhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		s.log.Warn("webhook body not parseable", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	chargeID := strings.TrimSpace(event.Data.ID)
	if chargeID == "" || event.Data.Object != "charge" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	result, err := s.chargeSvc.CheckStatus(c.Request.Context(), chargeID, "webhook")
	if err != nil {
		// Unknown charge ids are normal when events outlive their
		// transactions; everything else gets retried by reconcile.
		if !errors.Is(err, chargedomain.ErrChargeNotFound) {
			s.log.Warn("webhook charge check failed",
				zap.String("charge_id", chargeID),
				zap.String("event", event.Key),
				zap.Error(err),
			)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	s.log.Info("webhook processed",
		zap.String("charge_id", chargeID),
		zap.String("event", event.Key),
		zap.Bool("settled", result.Settled),
	)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
