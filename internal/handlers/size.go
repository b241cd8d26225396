package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/youredik/kubik/internal/models"
)

type SizeHandler struct {
	DB *gorm.DB
}

func (h *SizeHandler) GetSizes(c echo.Context) error {
	var sizes []models.Size
	if err := h.DB.Order("price ASC").Find(&sizes).Error; err != nil {
		c.Logger().Errorf("Error fetching sizes: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch sizes")
	}
	return c.JSON(http.StatusOK, sizes)
}

func (h *SizeHandler) UpdateSize(c echo.Context) error {
	var req struct {
		ID    string   `json:"id"`
		Price *float64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.ID == "" || req.Price == nil || *req.Price < 0 {
		return errorJSON(c, http.StatusBadRequest, "Invalid size ID or price")
	}

	res := h.DB.Model(&models.Size{}).Where("id = ?", req.ID).Update("price", *req.Price)
	if res.Error != nil {
		c.Logger().Errorf("Error updating size: %v", res.Error)
		return errorJSON(c, http.StatusInternalServerError, "Failed to update size")
	}
	if res.RowsAffected == 0 {
		return errorJSON(c, http.StatusNotFound, "Size not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Size updated successfully"})
}
