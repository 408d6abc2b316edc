package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item or service in the tenant catalog
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SKU           string          `gorm:"column:sku;uniqueIndex;size:64;not null" json:"sku"`
	Name          string          `gorm:"size:200;not null;index" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"size:100;index" json:"category"`
	Unit          string          `gorm:"size:16;default:'pcs'" json:"unit"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"unitPrice"`
	CostPrice     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"costPrice"`
	TaxRate       decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"taxRate"`
	StockQuantity int             `gorm:"not null;default:0" json:"stockQuantity"`
	ReorderLevel  int             `gorm:"not null;default:0" json:"reorderLevel"`
	SupplierID    *uint           `gorm:"index" json:"supplierId,omitempty"`
	IsActive      bool            `gorm:"not null;index" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

func (Product) TableName() string { return "products" }

// LowStock reports whether stock is at or under the reorder level.
func (p Product) LowStock() bool {
	return p.StockQuantity <= p.ReorderLevel
}

// StockMovement records one stock adjustment and the resulting balance
type StockMovement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"productId"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	BalanceAfter int       `gorm:"not null" json:"balanceAfter"`
	Reason       string    `gorm:"size:50;not null" json:"reason"`
	Reference    string    `gorm:"size:100" json:"reference"`
	UserID       string    `gorm:"size:36" json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (StockMovement) TableName() string { return "stock_movements" }
