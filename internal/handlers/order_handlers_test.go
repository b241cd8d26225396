package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/youredik/kubik/internal/models"
)

func orderBody(total float64) map[string]any {
	return map[string]any{
		"name":         "Иван",
		"phone":        "+79990001122",
		"deliveryType": "pickup",
		"items": []map[string]any{
			{"productName": "Багет Классика", "article": "BG001", "sizeLabel": "10×15", "quantity": 2, "price": 100},
			{"productName": "Багет Модерн", "article": "BG002", "sizeLabel": "15×20", "quantity": 1, "price": 150},
		},
		"total": total,
	}
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody(350))
	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success     bool         `json:"success"`
		OrderNumber string       `json:"orderNumber"`
		Total       float64      `json:"total"`
		Order       models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Regexp(t, `^\d{4}$`, resp.OrderNumber)
	require.Equal(t, "0001", resp.OrderNumber)
	require.Equal(t, float64(350), resp.Total)
	require.Equal(t, float64(350), resp.Order.TotalAmount)
	require.Len(t, resp.Order.Items, 2)

	var stored models.Order
	require.NoError(t, env.DB.Preload("Items").First(&stored, resp.Order.ID).Error)
	require.Equal(t, float64(350), stored.TotalAmount)
	require.Len(t, stored.Items, 2)
}

func TestCreateOrderSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)

	numbers := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody(350))
		require.NoError(t, env.O.CreateOrder(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			OrderNumber string `json:"orderNumber"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		numbers = append(numbers, resp.OrderNumber)
	}

	require.Equal(t, []string{"0001", "0002", "0003"}, numbers)
}

func TestCreateOrderRecomputesTotal(t *testing.T) {
	env := newTestEnv(t)

	// client claims 999, line items sum to 350: the stored amount is the
	// recomputed one
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody(999))
	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Total float64      `json:"total"`
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, float64(350), resp.Total)
	require.Equal(t, float64(350), resp.Order.TotalAmount)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{
			"phone": "1", "deliveryType": "pickup",
			"items": []map[string]any{{"productName": "X", "sizeLabel": "S", "quantity": 1, "price": 1}},
		}},
		{"missing phone", map[string]any{
			"name": "A", "deliveryType": "pickup",
			"items": []map[string]any{{"productName": "X", "sizeLabel": "S", "quantity": 1, "price": 1}},
		}},
		{"no items", map[string]any{
			"name": "A", "phone": "1", "deliveryType": "pickup", "items": []map[string]any{},
		}},
		{"bad delivery type", map[string]any{
			"name": "A", "phone": "1", "deliveryType": "teleport",
			"items": []map[string]any{{"productName": "X", "sizeLabel": "S", "quantity": 1, "price": 1}},
		}},
		{"zero quantity", map[string]any{
			"name": "A", "phone": "1", "deliveryType": "pickup",
			"items": []map[string]any{{"productName": "X", "sizeLabel": "S", "quantity": 0, "price": 1}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", tc.body)
			require.NoError(t, env.O.CreateOrder(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateOrderDeliveryAddressRule(t *testing.T) {
	env := newTestEnv(t)

	body := orderBody(350)
	body["deliveryType"] = "delivery"

	// rule off: delivery without address is accepted
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body)
	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// rule on: address becomes mandatory
	env.O.RequireDeliveryAddress = true
	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/orders", body)
	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body["address"] = "ул. Ленина, 1"
	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/orders", body)
	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetOrdersNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody(350))
		require.NoError(t, env.O.CreateOrder(c))
	}

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	require.NoError(t, env.O.GetOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	require.Len(t, orders[0].Items, 2)
	require.GreaterOrEqual(t, orders[0].ID, orders[1].ID)
}
