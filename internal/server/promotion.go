package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	promotiondomain "github.com/pixelpay/topup/internal/promotion/domain"
)

type validatePromotionRequest struct {
	Code string `json:"code"`
}

// ValidatePromotion is the pre-flight UI check. It never consumes a
// use; only checkout does.
func (s *Server) ValidatePromotion(c *gin.Context) {
	var req validatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.promotionSvc.Validate(c.Request.Context(), req.Code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"valid":          true,
		"discount_type":  rule.Type,
		"discount_value": rule.Value,
	}})
}

func (s *Server) ListPromotions(c *gin.Context) {
	activeOnly := strings.EqualFold(c.Query("active"), "true")

	resp, err := s.promotionSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePromotion(c *gin.Context) {
	var req promotiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPromotion(c *gin.Context) {
	resp, err := s.promotionSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePromotion(c *gin.Context) {
	var req promotiondomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.promotionSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchivePromotion(c *gin.Context) {
	resp, err := s.promotionSvc.Archive(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
