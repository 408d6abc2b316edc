package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesOrderStatus is the order fulfillment state
type SalesOrderStatus string

const (
	OrderDraft              SalesOrderStatus = "draft"
	OrderPending            SalesOrderStatus = "pending"
	OrderConfirmed          SalesOrderStatus = "confirmed"
	OrderProcessing         SalesOrderStatus = "processing"
	OrderPartiallyShipped   SalesOrderStatus = "partially_shipped"
	OrderShipped            SalesOrderStatus = "shipped"
	OrderPartiallyDelivered SalesOrderStatus = "partially_delivered"
	OrderDelivered          SalesOrderStatus = "delivered"
	OrderCompleted          SalesOrderStatus = "completed"
	OrderCancelled          SalesOrderStatus = "cancelled"
	OrderReturned           SalesOrderStatus = "returned"
)

// PaymentStatus summarizes recorded payments against the total
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// SalesOrder is a confirmed sale to a client company
type SalesOrder struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Number           string           `gorm:"uniqueIndex;size:32;not null" json:"number"`
	QuoteID          *uint            `gorm:"index" json:"quoteId,omitempty"`
	CompanyID        uint             `gorm:"not null;index" json:"companyId"`
	Status           SalesOrderStatus `gorm:"size:24;not null;default:'draft';index" json:"status"`
	PaymentStatus    PaymentStatus    `gorm:"size:16;not null;default:'unpaid';index" json:"paymentStatus"`
	OrderDate        time.Time        `gorm:"not null;index" json:"orderDate"`
	ExpectedDelivery *time.Time       `json:"expectedDelivery,omitempty"`
	Currency         string           `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Totals
	ShippingAmount  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"shippingAmount"`
	AmountPaid      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"amountPaid"`
	ShippingAddress string          `gorm:"type:text" json:"shippingAddress"`
	Notes           string          `gorm:"type:text" json:"notes"`
	OwnerID         string          `gorm:"size:36;index" json:"ownerId"`

	ConfirmedAt    *time.Time `json:"confirmedAt,omitempty"`
	ConfirmedBy    *string    `gorm:"size:36" json:"confirmedBy,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	TrackingNumber string     `gorm:"size:100;index" json:"trackingNumber,omitempty"`
	Carrier        string     `gorm:"size:100" json:"carrier,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy    *string    `gorm:"size:36" json:"cancelledBy,omitempty"`
	CancelReason   string     `gorm:"type:text" json:"cancelReason,omitempty"`
	ReturnedAt     *time.Time `json:"returnedAt,omitempty"`
	ReturnReason   string     `gorm:"type:text" json:"returnReason,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items    []SalesOrderItem `gorm:"foreignKey:SalesOrderID" json:"items"`
	Payments []Payment        `gorm:"foreignKey:SalesOrderID" json:"payments,omitempty"`
	Company  *Company         `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (SalesOrder) TableName() string { return "sales_orders" }

// Balance is the amount still owed.
func (o *SalesOrder) Balance() decimal.Decimal {
	return o.Total.Sub(o.AmountPaid)
}

// SalesOrderItem is one line of a sales order
type SalesOrderItem struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	SalesOrderID uint `gorm:"not null;index" json:"salesOrderId"`
	LineItem
	QuantityShipped decimal.Decimal `gorm:"type:numeric(15,3);not null;default:0" json:"quantityShipped"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SalesOrderItem) TableName() string { return "sales_order_items" }

// Payment is money received against a sales order
type Payment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SalesOrderID uint            `gorm:"not null;index" json:"salesOrderId"`
	Amount       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Method       string          `gorm:"size:30;not null" json:"method"`
	Reference    string          `gorm:"size:100" json:"reference"`
	PaidAt       time.Time       `gorm:"not null" json:"paidAt"`
	RecordedBy   string          `gorm:"size:36" json:"recordedBy"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (Payment) TableName() string { return "payments" }
