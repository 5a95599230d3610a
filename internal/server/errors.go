package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/pixelpay/topup/internal/catalog/domain"
	chargedomain "github.com/pixelpay/topup/internal/charge/domain"
	newsdomain "github.com/pixelpay/topup/internal/news/domain"
	promotiondomain "github.com/pixelpay/topup/internal/promotion/domain"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	if rejected, message := promotionRejection(err); rejected {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    err.Error(),
			Message: message,
		}
	}

	var declined *chargedomain.DeclinedError
	if errors.As(err, &declined) {
		return http.StatusPaymentRequired, errorPayload{
			Type:    "charge_declined",
			Message: declinedMessage(declined),
		}
	}

	var unknownStatus *chargedomain.UnknownStatusError
	if errors.As(err, &unknownStatus) {
		return http.StatusBadGateway, errorPayload{
			Type:    "unknown_charge_status",
			Message: "the payment provider returned an unrecognized status",
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    err.Error(),
			Message: "conflict",
		}
	case errors.Is(err, chargedomain.ErrChallengeNotSupported):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "challenge_not_supported",
			Message: "this card requires interactive authorization, which is not supported",
		}
	case errors.Is(err, chargedomain.ErrGatewayTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "gateway_timeout",
			Message: "the payment provider did not respond, try again",
		}
	case errors.Is(err, chargedomain.ErrGatewayError):
		// Provider detail stays in the logs; the customer gets a
		// retryable generic message.
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "payment failed, try again",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch err {
	case catalogdomain.ErrInvalidID,
		catalogdomain.ErrInvalidName,
		catalogdomain.ErrInvalidSlug,
		catalogdomain.ErrInvalidPrice,
		catalogdomain.ErrInvalidCurrency,
		promotiondomain.ErrInvalidID,
		promotiondomain.ErrInvalidCode,
		promotiondomain.ErrInvalidTitle,
		promotiondomain.ErrInvalidType,
		promotiondomain.ErrInvalidValue,
		transactiondomain.ErrInvalidID,
		transactiondomain.ErrInvalidPlayerRef,
		transactiondomain.ErrInvalidStatus,
		newsdomain.ErrInvalidID,
		newsdomain.ErrInvalidTitle,
		chargedomain.ErrInvalidSourceType:
		return true
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrGameNotFound),
		errors.Is(err, catalogdomain.ErrPackageNotFound),
		errors.Is(err, promotiondomain.ErrNotFound),
		errors.Is(err, transactiondomain.ErrNotFound),
		errors.Is(err, transactiondomain.ErrPackageNotFound),
		errors.Is(err, newsdomain.ErrNotFound),
		errors.Is(err, chargedomain.ErrChargeNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrSlugTaken),
		errors.Is(err, promotiondomain.ErrCodeTaken),
		errors.Is(err, newsdomain.ErrSlugTaken),
		errors.Is(err, chargedomain.ErrTransactionNotPending):
		return true
	default:
		return false
	}
}

// promotionRejection maps business-rule rejections of a code to the
// specific message the storefront renders. These are expected outcomes,
// not validation mistakes.
func promotionRejection(err error) (bool, string) {
	switch {
	case errors.Is(err, promotiondomain.ErrInactive):
		return true, "this code is no longer active"
	case errors.Is(err, promotiondomain.ErrExpired):
		return true, "this code has expired"
	case errors.Is(err, promotiondomain.ErrUsageExceeded):
		return true, "this code has been fully redeemed"
	case errors.Is(err, transactiondomain.ErrPackageInactive):
		return true, "this package is no longer available"
	default:
		return false, ""
	}
}

func declinedMessage(err *chargedomain.DeclinedError) string {
	if strings.TrimSpace(err.Message) == "" {
		return "payment was declined"
	}
	return err.Message
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
