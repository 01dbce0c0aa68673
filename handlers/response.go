package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"food-ordering-api/apperrors"
)

// respondError writes the error body for err. The underlying cause is
// attached to the gin context so the request logger can record it.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	body := gin.H{"error": apperrors.PublicMessage(err)}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(apperrors.HTTPStatus(err), body)
}

// bindError reports a malformed request body.
func bindError(c *gin.Context, err error) {
	appErr := apperrors.Validation("Invalid request body")
	appErr.Err = err
	respondError(c, appErr)
}

// parseID reads a numeric path parameter.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Validation("Invalid "+param))
		return 0, false
	}
	return uint(id), true
}
