package handlers

import (
	"log"

	"food-ordering-api/apperrors"

	"github.com/gin-gonic/gin"
)

// fail renders a taxonomy error with its mapped status. Anything outside the
// taxonomy is logged and rendered as a 500 without leaking internals.
func fail(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	if status == 500 {
		log.Printf("handlers: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, apperrors.Payload(err))
}
