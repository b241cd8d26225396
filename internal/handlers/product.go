package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/youredik/kubik/internal/imagestore"
	"github.com/youredik/kubik/internal/models"
	"github.com/youredik/kubik/internal/mykafka"
	"github.com/youredik/kubik/internal/service/search"
	"github.com/youredik/kubik/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
	Images   *imagestore.Store
}

type productResponse struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Article   string   `json:"article"`
	Images    []string `json:"images"`
	Available bool     `json:"available"`
}

func toProductResponse(p *models.Product) (productResponse, error) {
	images, err := p.ImageList()
	if err != nil {
		return productResponse{}, err
	}
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Article:   p.Article,
		Images:    images,
		Available: p.Available,
	}, nil
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) reindex(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	resp, err := toProductResponse(p)
	if err != nil {
		c.Logger().Errorf("ES index skipped for product %d: %v", p.ID, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	doc := search.ProductDoc{
		ID:        resp.ID,
		Name:      resp.Name,
		Article:   resp.Article,
		Images:    resp.Images,
		Available: resp.Available,
	}
	if err := search.IndexProduct(ctx, h.ES, h.Index, doc); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

// GetProducts is the public catalog listing: available products only,
// sorted by name.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Where("available = ?", true).Order("name ASC").Find(&products).Error; err != nil {
		c.Logger().Errorf("Error fetching products: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch products")
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		pr, err := toProductResponse(&products[i])
		if err != nil {
			c.Logger().Errorf("Malformed images for product %d: %v", products[i].ID, err)
			return errorJSON(c, http.StatusInternalServerError, "Failed to parse product images")
		}
		resp = append(resp, pr)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid product ID")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "Product not found")
		}
		c.Logger().Errorf("Error fetching product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch product")
	}

	resp, err := toProductResponse(&product)
	if err != nil {
		c.Logger().Errorf("Malformed images for product %d: %v", product.ID, err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to parse product images")
	}
	return c.JSON(http.StatusOK, resp)
}

// AdminGetProducts lists every product, unavailable ones included, with
// page/size pagination.
func (h *ProductHandler) AdminGetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		c.Logger().Errorf("Error counting products: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch products")
	}

	var products []models.Product
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		c.Logger().Errorf("Error fetching products: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch products")
	}

	items := make([]productResponse, 0, len(products))
	for i := range products {
		pr, err := toProductResponse(&products[i])
		if err != nil {
			c.Logger().Errorf("Malformed images for product %d: %v", products[i].ID, err)
			return errorJSON(c, http.StatusInternalServerError, "Failed to parse product images")
		}
		items = append(items, pr)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

type productRequest struct {
	Name      string   `json:"name"      validate:"required"`
	Article   string   `json:"article"   validate:"required"`
	Images    []string `json:"images"`
	Available *bool    `json:"available"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Name and article are required")
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	prod := models.Product{
		Name:      req.Name,
		Article:   req.Article,
		Available: available,
	}
	if err := prod.SetImageList(req.Images); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid images list")
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		c.Logger().Errorf("Error creating product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to create product")
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
		"article":   prod.Article,
	})
	h.reindex(c, &prod)

	resp, err := toProductResponse(&prod)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "Failed to parse product images")
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid product ID")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Name and article are required")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "Product not found")
		}
		c.Logger().Errorf("Error fetching product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to update product")
	}

	prod.Name = req.Name
	prod.Article = req.Article
	if req.Available != nil {
		prod.Available = *req.Available
	}
	if err := prod.SetImageList(req.Images); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid images list")
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		c.Logger().Errorf("Error updating product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to update product")
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	h.reindex(c, &prod)

	resp, err := toProductResponse(&prod)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "Failed to parse product images")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid product ID")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "Product not found")
		}
		c.Logger().Errorf("Error fetching product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete product")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		c.Logger().Errorf("Error deleting product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete product")
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteProductImage detaches one filename from the product's image list
// and removes the backing files. A missing product and a filename that is
// not in the list are distinct not-found conditions; a stored list that
// fails to parse is an internal error, not "not found".
func (h *ProductHandler) DeleteProductImage(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid product ID")
	}
	imageName := c.Param("imageName")
	if imageName == "" {
		return errorJSON(c, http.StatusBadRequest, "Image name is required")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "Product not found")
		}
		c.Logger().Errorf("Error fetching product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete image")
	}

	images, err := prod.ImageList()
	if err != nil {
		c.Logger().Errorf("Malformed images for product %d: %v", prod.ID, err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to parse product images")
	}

	kept := make([]string, 0, len(images))
	found := false
	for _, img := range images {
		if img == imageName {
			found = true
			continue
		}
		kept = append(kept, img)
	}
	if !found {
		return errorJSON(c, http.StatusNotFound, "Image not found in product")
	}

	if err := prod.SetImageList(kept); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete image")
	}
	if err := h.DB.Save(&prod).Error; err != nil {
		c.Logger().Errorf("Error updating product: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete image")
	}

	for _, res := range h.Images.Remove(imageName) {
		if res.Err != nil {
			c.Logger().Errorf("Error deleting file %s: %v", res.Path, res.Err)
		}
	}

	h.reindex(c, &prod)

	return c.JSON(http.StatusOK, echo.Map{"message": "Image deleted successfully"})
}
