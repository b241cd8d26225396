package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedImageList marks a products.images column that does not parse
// as a JSON array. Distinct from "image not found": handlers map it to 500.
var ErrMalformedImageList = errors.New("malformed image list")

type Product struct {
	ID        int    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name      string `gorm:"not null"                  json:"name"`
	Article   string `gorm:"unique;not null"           json:"article"`
	Images    string `gorm:"not null;default:'[]'"     json:"-"`
	Available bool   `gorm:"not null;default:true"     json:"available"`
}

// ImageList parses the serialized images column. An empty column is an
// empty list, not an error.
func (p *Product) ImageList() ([]string, error) {
	if p.Images == "" {
		return []string{}, nil
	}
	var images []string
	if err := json.Unmarshal([]byte(p.Images), &images); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImageList, err)
	}
	if images == nil {
		images = []string{}
	}
	return images, nil
}

func (p *Product) SetImageList(images []string) error {
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return err
	}
	p.Images = string(data)
	return nil
}

type Size struct {
	ID    string  `gorm:"primaryKey"  json:"id"`
	Label string  `gorm:"not null"    json:"label"`
	Price float64 `gorm:"not null"    json:"price"`
}

const (
	DeliveryTypePickup   = "pickup"
	DeliveryTypeDelivery = "delivery"
)

type Order struct {
	ID           int         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber  string      `gorm:"not null"                 json:"orderNumber"`
	CustomerName string      `gorm:"not null"                 json:"customerName"`
	Phone        string      `gorm:"not null"                 json:"phone"`
	DeliveryType string      `gorm:"not null"                 json:"deliveryType"`
	Address      *string     `json:"address"`
	Comment      *string     `json:"comment"`
	TotalAmount  float64     `gorm:"not null"                 json:"totalAmount"`
	CreatedAt    time.Time   `gorm:"not null"                 json:"createdAt"`
	Items        []OrderItem `gorm:"foreignKey:OrderID"       json:"items"`
}

type OrderItem struct {
	ID          int     `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID     int     `gorm:"index;not null"              json:"order_id"`
	ProductName string  `gorm:"not null"                    json:"productName"`
	Article     string  `gorm:"not null"                    json:"article"`
	Size        string  `gorm:"not null"                    json:"size"`
	Quantity    int     `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price       float64 `gorm:"not null"                    json:"price"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}
