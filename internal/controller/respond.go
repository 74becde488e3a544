package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmail/internal/apperr"
	"taskmail/internal/config"
	"taskmail/pkg/logger"
)

// fail translates a service error into the HTTP response. The attached
// status is used when present; anything else is a 500 whose detail leaks
// only outside production.
func fail(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{"success": false, "message": appErr.Message})
		return
	}
	logger.Error(c.Request.Context(), "Unhandled error", "error", err,
		"path", c.Request.URL.Path)
	msg := "internal server error"
	if !config.Get().Production() {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msg})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}
