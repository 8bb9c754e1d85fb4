package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"circuitrack/internal/repository"
	"circuitrack/internal/service"
	"circuitrack/pkg/cashback"

	"github.com/gin-gonic/gin"
)

// writeError maps service and repository errors onto HTTP responses.
// Unrecognised errors are logged and answered with fallback.
func writeError(c *gin.Context, err error, fallback string) {
	var short *repository.InsufficientFundsError
	switch {
	case errors.As(err, &short):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":           err.Error(),
			"current_balance": short.Current.StringFixed(2),
			"required":        short.Required.StringFixed(2),
		})
	case errors.Is(err, repository.ErrWalletNotFound), errors.Is(err, repository.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, cashback.ErrInvalidConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "wallet is busy, please retry"})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
