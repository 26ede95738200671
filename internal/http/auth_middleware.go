package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/apperror"
	"taskdesk/internal/service"
)

const subjectKey = "auth_subject"

// AuthRequired valida el bearer token y guarda el sujeto en el contexto.
// Corre antes de cualquier lógica de handler que necesite identidad y no
// sabe nada del recurso accedido. Los códigos distinguen expirado de
// inválido para que el cliente pueda reaccionar distinto.
func AuthRequired(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			abortError(c, apperror.Internal())
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abortError(c, apperror.MissingToken())
			return
		}

		raw := strings.TrimSpace(header[len("Bearer "):])
		if raw == "" {
			abortError(c, apperror.MissingToken())
			return
		}

		subject, err := tokens.Verify(raw)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortError(c, apperror.TokenExpired())
				return
			}
			abortError(c, apperror.InvalidToken())
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

// Subject obtiene el sujeto autenticado desde el contexto.
func Subject(c *gin.Context) (string, bool) {
	val, ok := c.Get(subjectKey)
	if !ok {
		return "", false
	}
	subject, ok := val.(string)
	return subject, ok && subject != ""
}

func abortError(c *gin.Context, appErr *apperror.Error) {
	c.JSON(appErr.Status, errorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
	})
	c.Abort()
}
