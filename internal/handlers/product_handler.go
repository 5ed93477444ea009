package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/helpers"
	"github.com/raffialdn/karyapay/internal/models"
)

type ProductRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
}

func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if !req.Price.IsPositive() {
		helpers.RespondWithError(c, http.StatusBadRequest, "Price must be greater than zero.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	product := models.Product{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CreatorID:   userID.(uuid.UUID),
	}

	if err := gormDB.Create(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create product.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Product created successfully.",
		"product_id": product.ID,
	})
}

func GetProduct(c *gin.Context) {
	productID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var product models.Product
	if err := gormDB.Where("id = ?", productID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving product.")
		return
	}

	c.JSON(http.StatusOK, product)
}

func ListProducts(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var products []models.Product
	if err := gormDB.Order("created_at DESC").Find(&products).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving products.")
		return
	}

	c.JSON(http.StatusOK, products)
}
