package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/youredik/kubik/internal/models"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram posts new-order messages to a chat via the bot API. All sends
// are best-effort: order creation never fails on a notification error.
type Telegram struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  defaultBaseURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the bot is configured. An unconfigured notifier
// silently does nothing.
func (t *Telegram) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

func (t *Telegram) SendOrder(ctx context.Context, order *models.Order) error {
	if !t.Enabled() {
		return nil
	}

	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       formatOrderMessage(order),
		"parse_mode": "HTML",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram: send failed: %s: %s", resp.Status, body)
	}
	return nil
}

func formatOrderMessage(order *models.Order) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "<b>🛒 Новый заказ #%s</b>\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "<b>👤 Клиент:</b> %s\n", order.CustomerName)
	fmt.Fprintf(&b, "<b>📞 Телефон:</b> %s\n", order.Phone)

	delivery := "Доставка"
	if order.DeliveryType == models.DeliveryTypePickup {
		delivery = "Самовывоз"
	}
	fmt.Fprintf(&b, "<b>🚚 Доставка:</b> %s\n", delivery)

	if order.Address != nil && *order.Address != "" {
		fmt.Fprintf(&b, "<b>📍 Адрес:</b> %s\n", *order.Address)
	}
	if order.Comment != nil && *order.Comment != "" {
		fmt.Fprintf(&b, "<b>💬 Комментарий:</b> %s\n", *order.Comment)
	}

	b.WriteString("\n<b>📦 Товары:</b>\n")
	for i, item := range order.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.ProductName)
		fmt.Fprintf(&b, "   Артикул: %s\n", item.Article)
		fmt.Fprintf(&b, "   Размер: %s\n", item.Size)
		fmt.Fprintf(&b, "   Кол-во: %d × %g ₽\n", item.Quantity, item.Price)
		fmt.Fprintf(&b, "   Сумма: %g ₽\n\n", float64(item.Quantity)*item.Price)
	}
	if len(order.Items) == 0 {
		b.WriteString("Нет товаров в заказе\n\n")
	}

	fmt.Fprintf(&b, "<b>💰 Итого: %g ₽</b>", order.TotalAmount)
	return b.String()
}
