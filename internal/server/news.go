package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	newsdomain "github.com/pixelpay/topup/internal/news/domain"
)

func (s *Server) ListNews(c *gin.Context) {
	resp, err := s.newsSvc.List(c.Request.Context(), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetNewsBySlug(c *gin.Context) {
	resp, err := s.newsSvc.GetBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Unpublished drafts stay invisible on the public route.
	if !resp.Published {
		AbortWithError(c, newsdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AdminListNews(c *gin.Context) {
	resp, err := s.newsSvc.List(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateNews(c *gin.Context) {
	var req newsdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.newsSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateNews(c *gin.Context) {
	var req newsdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.newsSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteNews(c *gin.Context) {
	if err := s.newsSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
