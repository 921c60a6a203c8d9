package handlers

import (
	"net/http"
	"strconv"

	"food-ordering-api/apperrors"
	"food-ordering-api/config"
	"food-ordering-api/ledger"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/statemachine"

	"github.com/gin-gonic/gin"
)

func actorFrom(c *gin.Context) ledger.Actor {
	userID, role := middleware.Actor(c)
	return ledger.Actor{UserID: userID, Role: role}
}

func orderIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.ErrValidation.WithMessagef("invalid order id")
	}
	return uint(id), nil
}

// CreateOrder places a new order (customer only)
func CreateOrder(c *gin.Context) {
	var req ledger.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.ErrValidation.WithMessagef("%s", err.Error()))
		return
	}

	order, err := ledger.CreateOrder(config.DB, actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created",
		"order":   order,
	})
}

// GetOrders returns the caller's role-scoped view of the ledger
func GetOrders(c *gin.Context) {
	actor := actorFrom(c)
	orders, err := ledger.ListOrders(config.DB, actor)
	if err != nil {
		fail(c, err)
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == models.OrderStatus(status) {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	resp := gin.H{"count": len(orders), "orders": orders}

	// Dashboard summary for the staff views
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleRestaurant {
		summary := map[string]int{}
		for _, o := range orders {
			summary[string(o.Status)]++
		}
		resp["order_summary"] = summary
	}

	c.JSON(http.StatusOK, resp)
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus applies one state-machine transition to an order. The
// ledger enforces the transition table, ownership and the courier claim.
func UpdateOrderStatus(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.ErrValidation.WithMessagef("%s", err.Error()))
		return
	}

	order, err := ledger.UpdateStatus(config.DB, actorFrom(c), orderID, req.Status, req.Note)
	if err != nil {
		if apperrors.StatusOf(err) == http.StatusUnprocessableEntity {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":             err.Error(),
				"code":              "invalid_transition",
				"valid_next_states": validNextStates(orderID),
			})
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

func validNextStates(orderID uint) []models.OrderStatus {
	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		return nil
	}
	return statemachine.ValidTransitionsFrom(order.Status)
}
