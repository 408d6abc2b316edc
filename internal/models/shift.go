package models

import (
	"time"

	"gorm.io/gorm"
)

// ShiftStatus is the state of a scheduled shift
type ShiftStatus string

const (
	ShiftScheduled ShiftStatus = "scheduled"
	ShiftCompleted ShiftStatus = "completed"
	ShiftCancelled ShiftStatus = "cancelled"
	ShiftNoShow    ShiftStatus = "no_show"
)

// Shift is a block of work time assigned to an employee
type Shift struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	EmployeeID uint        `gorm:"not null;index:idx_shift_employee_time" json:"employeeId"`
	StartsAt   time.Time   `gorm:"not null;index:idx_shift_employee_time" json:"startsAt"`
	EndsAt     time.Time   `gorm:"not null" json:"endsAt"`
	Role       string      `gorm:"size:100" json:"role"`
	Location   string      `gorm:"size:200" json:"location"`
	Status     ShiftStatus `gorm:"size:16;not null;default:'scheduled';index" json:"status"`
	Notes      string      `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

func (Shift) TableName() string { return "shifts" }

// Hours is the scheduled duration.
func (s Shift) Hours() float64 {
	return s.EndsAt.Sub(s.StartsAt).Hours()
}
