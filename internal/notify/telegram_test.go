package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/youredik/kubik/internal/models"
)

func testOrder() *models.Order {
	address := "ул. Ленина, 1"
	return &models.Order{
		ID:           1,
		OrderNumber:  "0007",
		CustomerName: "Иван",
		Phone:        "+79990001122",
		DeliveryType: models.DeliveryTypeDelivery,
		Address:      &address,
		TotalAmount:  350,
		CreatedAt:    time.Now(),
		Items: []models.OrderItem{
			{ProductName: "Багет Классика", Article: "BG001", Size: "10×15", Quantity: 2, Price: 100},
			{ProductName: "Багет Модерн", Article: "BG002", Size: "15×20", Quantity: 1, Price: 150},
		},
	}
}

func TestSendOrder(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "chat-42")
	tg.BaseURL = srv.URL

	require.NoError(t, tg.SendOrder(context.Background(), testOrder()))

	require.Equal(t, "/botbot-token/sendMessage", gotPath)
	require.Equal(t, "chat-42", gotPayload["chat_id"])
	require.Equal(t, "HTML", gotPayload["parse_mode"])
	require.Contains(t, gotPayload["text"], "#0007")
	require.Contains(t, gotPayload["text"], "Иван")
	require.Contains(t, gotPayload["text"], "BG001")
	require.Contains(t, gotPayload["text"], "ул. Ленина, 1")
}

func TestSendOrderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "chat-42")
	tg.BaseURL = srv.URL

	require.Error(t, tg.SendOrder(context.Background(), testOrder()))
}

func TestSendOrderUnconfigured(t *testing.T) {
	tg := NewTelegram("", "")
	require.False(t, tg.Enabled())
	require.NoError(t, tg.SendOrder(context.Background(), testOrder()))

	var nilTg *Telegram
	require.False(t, nilTg.Enabled())
}

func TestFormatOrderMessagePickup(t *testing.T) {
	order := testOrder()
	order.DeliveryType = models.DeliveryTypePickup
	order.Address = nil

	msg := formatOrderMessage(order)
	require.Contains(t, msg, "Самовывоз")
	require.NotContains(t, msg, "Адрес")
	require.Contains(t, msg, "Итого: 350")
}
