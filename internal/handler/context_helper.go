package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniattend-api/internal/middleware"
	"github.com/noah-isme/uniattend-api/internal/models"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
	"github.com/noah-isme/uniattend-api/pkg/response"
)

// sessionUser returns the session user or writes a 401 and reports false.
func sessionUser(c *gin.Context) (models.User, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.User{}, false
	}
	return claims.User, true
}
