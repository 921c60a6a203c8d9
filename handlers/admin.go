package handlers

import (
	"net/http"

	"food-ordering-api/apperrors"
	"food-ordering-api/config"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

// AdminGetAllUsers returns all users — admin only
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

type CreateRestaurantRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CuisineType string `json:"cuisine_type"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	ImageURL    string `json:"image_url"`
	OwnerID     uint   `json:"owner_id" binding:"required"`
}

// AdminCreateRestaurant creates a restaurant for a restaurant-role owner
func AdminCreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.ErrValidation.WithMessagef("%s", err.Error()))
		return
	}

	var owner models.User
	if err := config.DB.First(&owner, req.OwnerID).Error; err != nil {
		fail(c, apperrors.ErrInvalidOwner.WithMessagef("designated owner not found"))
		return
	}
	if owner.Role != models.RoleRestaurant {
		fail(c, apperrors.ErrInvalidOwner)
		return
	}

	restaurant := models.Restaurant{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		CuisineType: req.CuisineType,
		Address:     req.Address,
		Phone:       req.Phone,
		ImageURL:    req.ImageURL,
	}
	if err := config.DB.Create(&restaurant).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}
