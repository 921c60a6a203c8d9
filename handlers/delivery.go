package handlers

import (
	"net/http"

	"food-ordering-api/config"
	"food-ordering-api/ledger"

	"github.com/gin-gonic/gin"
)

// GetAvailableOrders shows ready orders with no courier assigned. Couriers
// poll this list and claim an order via PUT /orders/:id/status {"status":"accepted"}.
func GetAvailableOrders(c *gin.Context) {
	orders, err := ledger.ListAvailableForDelivery(config.DB)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(orders),
		"orders": orders,
	})
}
