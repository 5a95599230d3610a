package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	chargedomain "github.com/pixelpay/topup/internal/charge/domain"
)

func (s *Server) ChargeCard(c *gin.Context) {
	var req chargedomain.CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.chargeSvc.ChargeCard(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ChargeSource(c *gin.Context) {
	var req chargedomain.SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.chargeSvc.ChargeSource(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckChargeStatus(c *gin.Context) {
	chargeID := strings.TrimSpace(c.Param("id"))
	if chargeID == "" {
		AbortWithError(c, chargedomain.ErrChargeNotFound)
		return
	}

	resp, err := s.chargeSvc.CheckStatus(c.Request.Context(), chargeID, "client")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
