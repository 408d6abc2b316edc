package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseStatus is the expense claim lifecycle state
type ExpenseStatus string

const (
	ExpenseDraft     ExpenseStatus = "draft"
	ExpenseSubmitted ExpenseStatus = "submitted"
	ExpenseApproved  ExpenseStatus = "approved"
	ExpenseRejected  ExpenseStatus = "rejected"
	ExpensePaid      ExpenseStatus = "paid"
)

// ExpenseClaim groups expenses an employee asks to be reimbursed for
type ExpenseClaim struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Number           string          `gorm:"uniqueIndex;size:32;not null" json:"number"`
	EmployeeID       uint            `gorm:"not null;index" json:"employeeId"`
	Title            string          `gorm:"size:200;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	Status           ExpenseStatus   `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Currency         string          `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"totalAmount"`
	SubmittedAt      *time.Time      `json:"submittedAt,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	ApprovedBy       *string         `gorm:"size:36" json:"approvedBy,omitempty"`
	RejectedAt       *time.Time      `json:"rejectedAt,omitempty"`
	RejectedBy       *string         `gorm:"size:36" json:"rejectedBy,omitempty"`
	RejectionReason  string          `gorm:"type:text" json:"rejectionReason,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	PaymentReference string          `gorm:"size:100" json:"paymentReference,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items    []ExpenseItem `gorm:"foreignKey:ClaimID" json:"items"`
	Employee *Employee     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

func (ExpenseClaim) TableName() string { return "expense_claims" }

// ExpenseItem is one receipt on a claim
type ExpenseItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ClaimID     uint            `gorm:"not null;index" json:"claimId"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Category    string          `gorm:"size:50;not null;index" json:"category"`
	Description string          `gorm:"size:500" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	TaxAmount   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"taxAmount"`
	ReceiptURL  string          `gorm:"size:500" json:"receiptUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ExpenseItem) TableName() string { return "expense_items" }
