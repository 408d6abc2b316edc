package models

import (
	"time"

	"gorm.io/gorm"
)

// OnboardingStatus tracks a plan from creation to completion
type OnboardingStatus string

const (
	OnboardingNotStarted OnboardingStatus = "not_started"
	OnboardingInProgress OnboardingStatus = "in_progress"
	OnboardingCompleted  OnboardingStatus = "completed"
	OnboardingCancelled  OnboardingStatus = "cancelled"
)

// OnboardingPlan is the checklist a new employee works through
type OnboardingPlan struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	EmployeeID uint             `gorm:"not null;index" json:"employeeId"`
	Title      string           `gorm:"size:200;not null" json:"title"`
	StartDate  time.Time        `gorm:"not null" json:"startDate"`
	DueDate    *time.Time       `json:"dueDate,omitempty"`
	Status     OnboardingStatus `gorm:"size:20;not null;default:'not_started';index" json:"status"`
	Progress   int              `gorm:"not null;default:0" json:"progress"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Tasks    []OnboardingTask `gorm:"foreignKey:PlanID" json:"tasks"`
	Employee *Employee        `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

func (OnboardingPlan) TableName() string { return "onboarding_plans" }

// OnboardingTask is one step of a plan
type OnboardingTask struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PlanID      uint       `gorm:"not null;index" json:"planId"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	AssigneeID  *uint      `gorm:"index" json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	SortOrder   int        `gorm:"not null;default:0" json:"sortOrder"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OnboardingTask) TableName() string { return "onboarding_tasks" }
