package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/pixelpay/topup/internal/catalog/domain"
)

func (s *Server) ListGames(c *gin.Context) {
	resp, err := s.catalogSvc.ListGames(c.Request.Context(), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetGameBySlug(c *gin.Context) {
	resp, err := s.catalogSvc.GetGameBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGamePackages(c *gin.Context) {
	game, err := s.catalogSvc.GetGameBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.ListPackages(c.Request.Context(), game.ID, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AdminListGames(c *gin.Context) {
	resp, err := s.catalogSvc.ListGames(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateGame(c *gin.Context) {
	var req catalogdomain.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateGame(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateGame(c *gin.Context) {
	var req catalogdomain.UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.catalogSvc.UpdateGame(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteGame(c *gin.Context) {
	if err := s.catalogSvc.DeleteGame(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) CreatePackage(c *gin.Context) {
	var req catalogdomain.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreatePackage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePackage(c *gin.Context) {
	var req catalogdomain.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.catalogSvc.UpdatePackage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchivePackage(c *gin.Context) {
	resp, err := s.catalogSvc.ArchivePackage(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
