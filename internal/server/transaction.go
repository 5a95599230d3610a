package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pixelpay/topup/internal/authctx"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
)

func (s *Server) CreateTransaction(c *gin.Context) {
	var req transactiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.txnSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTransaction(c *gin.Context) {
	resp, err := s.txnSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMyTransactions(c *gin.Context) {
	userID, ok := authctx.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id := int64(userID)
	resp, err := s.txnSvc.List(c.Request.Context(), transactiondomain.ListRequest{
		UserID: &id,
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Limit:  queryLimit(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AdminListTransactions(c *gin.Context) {
	req := transactiondomain.ListRequest{
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Limit:  queryLimit(c),
	}

	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, transactiondomain.ErrInvalidID)
			return
		}
		req.UserID = &id
	}

	resp, err := s.txnSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type overrideStatusRequest struct {
	Status         string  `json:"status" binding:"required"`
	ChargeID       *string `json:"charge_id"`
	FailureMessage *string `json:"failure_message"`
}

// OverrideTransactionStatus is the admin escape hatch. It bypasses the
// PENDING-only transition guard and is always audited.
func (s *Server) OverrideTransactionStatus(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		AbortWithError(c, transactiondomain.ErrInvalidID)
		return
	}

	var body overrideStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.txnSvc.UpdateStatus(c.Request.Context(), transactiondomain.UpdateStatusRequest{
		ID:             id,
		Status:         transactiondomain.Status(strings.ToUpper(strings.TrimSpace(body.Status))),
		ChargeID:       body.ChargeID,
		FailureMessage: body.FailureMessage,
		Source:         "admin",
		AdminOverride:  true,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func queryLimit(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
