package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EmployeeStatus is the employment state
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "active"
	EmployeeOnLeave    EmployeeStatus = "on_leave"
	EmployeeTerminated EmployeeStatus = "terminated"
)

// Employee is a member of the tenant's staff
type Employee struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	EmployeeNumber    string          `gorm:"uniqueIndex;size:20;not null" json:"employeeNumber"`
	FirstName         string          `gorm:"size:100;not null" json:"firstName"`
	LastName          string          `gorm:"size:100;not null" json:"lastName"`
	Email             string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone             string          `gorm:"size:50" json:"phone"`
	Department        string          `gorm:"size:100;index" json:"department"`
	Position          string          `gorm:"size:100" json:"position"`
	ManagerID         *uint           `gorm:"index" json:"managerId,omitempty"`
	HireDate          *time.Time      `json:"hireDate,omitempty"`
	TerminationDate   *time.Time      `json:"terminationDate,omitempty"`
	TerminationReason string          `gorm:"type:text" json:"terminationReason,omitempty"`
	Status            EmployeeStatus  `gorm:"size:20;default:'active';index" json:"status"`
	Salary            decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"salary"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Manager   *Employee `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Contacts  []Contact `gorm:"polymorphic:Owner;polymorphicValue:employee" json:"contacts,omitempty"`
	Addresses []Address `gorm:"polymorphic:Owner;polymorphicValue:employee" json:"addresses,omitempty"`
}

func (Employee) TableName() string { return "employees" }

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
