package models

import (
	"time"

	"gorm.io/gorm"
)

// OwnerKind tags the entity a contact or address belongs to.
type OwnerKind string

const (
	OwnerCompany  OwnerKind = "company"
	OwnerEmployee OwnerKind = "employee"
	OwnerSupplier OwnerKind = "supplier"
)

// Valid reports whether k is a known owner kind.
func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerCompany, OwnerEmployee, OwnerSupplier:
		return true
	}
	return false
}

// Owner is a tagged reference to the record a sub-record hangs off.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

// Contact is a person attached to an owner.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerType OwnerKind `gorm:"size:20;not null;index:idx_contact_owner" json:"ownerType"`
	OwnerID   uint      `gorm:"not null;index:idx_contact_owner" json:"ownerId"`
	FirstName string    `gorm:"size:100;not null" json:"firstName"`
	LastName  string    `gorm:"size:100" json:"lastName"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Position  string    `gorm:"size:100" json:"position"`
	IsPrimary bool      `gorm:"default:false" json:"isPrimary"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Contact) TableName() string { return "contacts" }

// AddressType classifies an address.
type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
	AddressOffice   AddressType = "office"
	AddressHome     AddressType = "home"
)

// Address is a postal address attached to an owner.
type Address struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OwnerType  OwnerKind   `gorm:"size:20;not null;index:idx_address_owner" json:"ownerType"`
	OwnerID    uint        `gorm:"not null;index:idx_address_owner" json:"ownerId"`
	Type       AddressType `gorm:"size:20;default:'office'" json:"type"`
	Line1      string      `gorm:"column:line1;size:255;not null" json:"line1"`
	Line2      string      `gorm:"column:line2;size:255" json:"line2"`
	City       string      `gorm:"size:100;not null" json:"city"`
	State      string      `gorm:"size:100" json:"state"`
	PostalCode string      `gorm:"size:20" json:"postalCode"`
	Country    string      `gorm:"size:2;not null" json:"country"`
	IsPrimary  bool        `gorm:"default:false" json:"isPrimary"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string { return "addresses" }
