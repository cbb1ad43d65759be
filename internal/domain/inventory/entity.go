package inventory

import (
	"time"
)

// OrderStatus enum
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderShipped OrderStatus = "shipped"
)

// Bin lokasi fisik di gudang
type Bin struct {
	BinID  string `json:"bin_id"`
	Zone   string `json:"zone,omitempty"`
	Coords string `json:"coords,omitempty"`
}

// Item satu unit fisik, dilabeli QR
type Item struct {
	ItemID     string `json:"item_id"`
	SKU        string `json:"sku"`
	Lot        string `json:"lot,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// Allocation bin yang diharapkan untuk sebuah item.
// Satu baris per item; update menimpa, tidak menambah.
type Allocation struct {
	ItemID    string    `json:"item_id"`
	BinID     string    `json:"bin_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot observasi isi sebuah bin pada satu waktu
type Snapshot struct {
	ID       int64     `json:"id"`
	TS       time.Time `json:"ts"`
	BinID    string    `json:"bin_id"`
	ItemIDs  []string  `json:"item_ids"`
	PhotoRef string    `json:"photo_ref,omitempty"`
	OCRText  string    `json:"ocr_text,omitempty"`
	Conf     float64   `json:"conf"`
}

// Aggregate Root: Order
type Order struct {
	ID       int64       `json:"id"`
	OrderID  string      `json:"order_id"`
	ShipDate time.Time   `json:"ship_date"`
	SKU      string      `json:"sku"`
	Qty      int         `json:"qty"`
	ItemIDs  []string    `json:"item_ids,omitempty"` // explicit list, optional
	Status   OrderStatus `json:"status"`
}
