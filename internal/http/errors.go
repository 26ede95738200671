package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"taskdesk/internal/apperror"
)

// errorResponse es la forma uniforme de error en el wire.
type errorResponse struct {
	ErrorCode string                `json:"error_code"`
	Message   string                `json:"message"`
	Details   []apperror.FieldError `json:"details,omitempty"`
}

// respondError traduce cualquier error a la taxonomía fija. Lo que no es un
// *apperror.Error sale como 500 genérico, sin detalle interno.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, errorResponse{
			ErrorCode: appErr.Code,
			Message:   appErr.Message,
			Details:   appErr.Details,
		})
		return
	}
	if logger != nil {
		logger.Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}
	internal := apperror.Internal()
	c.JSON(internal.Status, errorResponse{
		ErrorCode: internal.Code,
		Message:   internal.Message,
	})
}

// bindJSON aplica la validación de forma del body y convierte cualquier
// falla en un VALIDATION_ERROR con detalle por campo.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, apperror.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: fmt.Sprintf("failed validation on '%s'", fe.Tag()),
			})
		}
		return apperror.Validation(details)
	}
	return apperror.Validation([]apperror.FieldError{
		{Field: "body", Message: "malformed JSON body"},
	})
}
