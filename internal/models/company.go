package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompanyType classifies the relationship with a company
type CompanyType string

const (
	CompanyCustomer CompanyType = "customer"
	CompanyProspect CompanyType = "prospect"
	CompanyPartner  CompanyType = "partner"
	CompanySupplier CompanyType = "supplier"
)

// RecordStatus is the active flag shared by master-data records
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
	StatusBlocked  RecordStatus = "blocked"
)

// Company is a client or business partner of the tenant
type Company struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Name        string          `gorm:"size:200;not null;index" json:"name"`
	TradeName   string          `gorm:"size:200" json:"tradeName"`
	TaxID       string          `gorm:"column:tax_id;size:50;index" json:"taxId"`
	Industry    string          `gorm:"size:100;index" json:"industry"`
	Website     string          `gorm:"size:255" json:"website"`
	Email       string          `gorm:"size:255" json:"email"`
	Phone       string          `gorm:"size:50" json:"phone"`
	Type        CompanyType     `gorm:"size:20;default:'customer';index" json:"type"`
	Status      RecordStatus    `gorm:"size:20;default:'active';index" json:"status"`
	CreditLimit decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"creditLimit"`
	Notes       string          `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Contacts  []Contact `gorm:"polymorphic:Owner;polymorphicValue:company" json:"contacts,omitempty"`
	Addresses []Address `gorm:"polymorphic:Owner;polymorphicValue:company" json:"addresses,omitempty"`
}

func (Company) TableName() string { return "companies" }
