package handlers

import (
	"net/http"

	"food-ordering-api/apperrors"
	"food-ordering-api/config"
	"food-ordering-api/middleware"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

type CreateMenuItemRequest struct {
	RestaurantID uint    `json:"restaurant_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" binding:"gte=0"`
	ImageURL     string  `json:"image_url"`
	Category     string  `json:"category"`
}

// AddMenuItem adds an item to a restaurant the caller owns
func AddMenuItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.ErrValidation.WithMessagef("%s", err.Error()))
		return
	}
	if req.Price < 0 {
		fail(c, apperrors.ErrValidation.WithMessagef("price must not be negative"))
		return
	}

	// Ownership check: the target restaurant comes from the payload and must
	// belong to the caller.
	var restaurant models.Restaurant
	if err := config.DB.Where("id = ? AND owner_id = ?", req.RestaurantID, ownerID).First(&restaurant).Error; err != nil {
		fail(c, apperrors.ErrForbidden.WithMessagef("not your restaurant"))
		return
	}

	item := models.MenuItem{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		Category:     req.Category,
	}
	if err := config.DB.Create(&item).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem updates a menu item (only by the owner)
func UpdateMenuItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	itemID := c.Param("itemId")

	var item models.MenuItem
	if err := config.DB.First(&item, itemID).Error; err != nil {
		fail(c, apperrors.ErrNotFound.WithMessagef("menu item not found"))
		return
	}

	var restaurant models.Restaurant
	if err := config.DB.Where("id = ? AND owner_id = ?", item.RestaurantID, ownerID).First(&restaurant).Error; err != nil {
		fail(c, apperrors.ErrForbidden.WithMessagef("you don't own this menu item"))
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.ErrValidation.WithMessagef("%s", err.Error()))
		return
	}
	// Only catalog fields are writable; snapshots in existing orders are
	// unaffected either way.
	allowed := map[string]bool{"name": true, "description": true, "price": true, "image_url": true, "category": true}
	update := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			update[k] = v
		}
	}
	if price, ok := update["price"].(float64); ok && price < 0 {
		fail(c, apperrors.ErrValidation.WithMessagef("price must not be negative"))
		return
	}
	config.DB.Model(&item).Updates(update)
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes a menu item
func DeleteMenuItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	itemID := c.Param("itemId")

	var item models.MenuItem
	if err := config.DB.First(&item, itemID).Error; err != nil {
		fail(c, apperrors.ErrNotFound.WithMessagef("menu item not found"))
		return
	}
	var restaurant models.Restaurant
	if err := config.DB.Where("id = ? AND owner_id = ?", item.RestaurantID, ownerID).First(&restaurant).Error; err != nil {
		fail(c, apperrors.ErrForbidden.WithMessagef("you don't own this menu item"))
		return
	}
	config.DB.Delete(&item)
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
