package models

import (
	"time"

	"gorm.io/gorm"
)

// Supplier provides products to the tenant
type Supplier struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Code         string       `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Name         string       `gorm:"size:200;not null;index" json:"name"`
	TaxID        string       `gorm:"column:tax_id;size:50" json:"taxId"`
	Email        string       `gorm:"size:255" json:"email"`
	Phone        string       `gorm:"size:50" json:"phone"`
	Website      string       `gorm:"size:255" json:"website"`
	PaymentTerms int          `gorm:"not null" json:"paymentTerms"` // days
	Rating       int          `gorm:"default:0" json:"rating"`      // 0..5
	Status       RecordStatus `gorm:"size:20;default:'active';index" json:"status"`
	Notes        string       `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Contacts  []Contact `gorm:"polymorphic:Owner;polymorphicValue:supplier" json:"contacts,omitempty"`
	Addresses []Address `gorm:"polymorphic:Owner;polymorphicValue:supplier" json:"addresses,omitempty"`
}

func (Supplier) TableName() string { return "suppliers" }
