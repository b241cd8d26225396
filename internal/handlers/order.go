package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/youredik/kubik/internal/logging"
	"github.com/youredik/kubik/internal/models"
	"github.com/youredik/kubik/internal/mykafka"
	"github.com/youredik/kubik/internal/notify"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Notifier *notify.Telegram

	// RequireDeliveryAddress makes address mandatory for delivery-type
	// orders. Off by default.
	RequireDeliveryAddress bool
}

type createOrderItem struct {
	ProductName string  `json:"productName" validate:"required"`
	Article     string  `json:"article"`
	SizeLabel   string  `json:"sizeLabel"   validate:"required"`
	Quantity    int     `json:"quantity"    validate:"required,gt=0"`
	Price       float64 `json:"price"       validate:"gte=0"`
}

type createOrderRequest struct {
	Name         string            `json:"name"         validate:"required"`
	Phone        string            `json:"phone"        validate:"required"`
	DeliveryType string            `json:"deliveryType" validate:"required,oneof=pickup delivery"`
	Address      *string           `json:"address"`
	Comment      *string           `json:"comment"`
	Items        []createOrderItem `json:"items"        validate:"required,min=1,dive"`
	Total        float64           `json:"total"`
}

// CreateOrder persists an order with its line items and assigns the next
// sequential 4-digit order number. The number comes from a count-then-insert
// inside the write transaction: with one process on the SQLite file this is
// serialized, with several writers it can hand out duplicates.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Name, phone and at least one item are required")
	}
	if h.RequireDeliveryAddress && req.DeliveryType == models.DeliveryTypeDelivery {
		if req.Address == nil || *req.Address == "" {
			return errorJSON(c, http.StatusBadRequest, "Address is required for delivery orders")
		}
	}

	// The stored total is always recomputed from the line items; a
	// disagreeing client total is logged, not trusted.
	var total float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		total += float64(it.Quantity) * it.Price
		items = append(items, models.OrderItem{
			ProductName: it.ProductName,
			Article:     it.Article,
			Size:        it.SizeLabel,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	if req.Total != total {
		c.Logger().Warnf("client total %v differs from computed total %v", req.Total, total)
	}

	order := models.Order{
		CustomerName: req.Name,
		Phone:        req.Phone,
		DeliveryType: req.DeliveryType,
		Address:      req.Address,
		Comment:      req.Comment,
		TotalAmount:  total,
		CreatedAt:    time.Now(),
		Items:        items,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Order{}).Count(&count).Error; err != nil {
			return err
		}
		order.OrderNumber = fmt.Sprintf("%04d", count+1)
		return tx.Create(&order).Error
	})
	if txErr != nil {
		c.Logger().Errorf("Error creating order: %v", txErr)
		return errorJSON(c, http.StatusInternalServerError, "Failed to create order")
	}

	h.notifyNewOrder(c, &order)

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"orderNumber": order.OrderNumber,
		"total":       order.TotalAmount,
		"order":       order,
	})
}

// notifyNewOrder fans the committed order out to the side channels. Each
// send runs detached and only logs on failure.
func (h *OrderHandler) notifyNewOrder(c echo.Context, order *models.Order) {
	l := logging.FromContext(c.Request().Context()).With("order_number", order.OrderNumber)

	if h.Notifier.Enabled() {
		go func(o models.Order) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.Notifier.SendOrder(ctx, &o); err != nil {
				l.Error("telegram_notify_error", "error", err)
			}
		}(*order)
	}

	if h.Producer != nil {
		go func(o models.Order) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			event := map[string]any{
				"type":         "order_created",
				"orderID":      o.ID,
				"order_number": o.OrderNumber,
				"total":        o.TotalAmount,
			}
			if err := h.Producer.PublishEvent(ctx, "order_events", o.OrderNumber, event); err != nil {
				l.Error("kafka_publish_error", "error", err)
			}
		}(*order)
	}
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.DB.Preload("Items").Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		c.Logger().Errorf("Error fetching orders: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch orders")
	}
	return c.JSON(http.StatusOK, orders)
}
