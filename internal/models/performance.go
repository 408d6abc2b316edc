package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewStatus is the performance review workflow state
type ReviewStatus string

const (
	ReviewDraft        ReviewStatus = "draft"
	ReviewSubmitted    ReviewStatus = "submitted"
	ReviewAcknowledged ReviewStatus = "acknowledged"
)

// GoalStatus is the outcome of a review goal
type GoalStatus string

const (
	GoalOpen     GoalStatus = "open"
	GoalAchieved GoalStatus = "achieved"
	GoalMissed   GoalStatus = "missed"
)

// PerformanceReview rates an employee over a period
type PerformanceReview struct {
	ID             uint                               `gorm:"primaryKey" json:"id"`
	EmployeeID     uint                               `gorm:"not null;index" json:"employeeId"`
	ReviewerID     *uint                              `gorm:"index" json:"reviewerId,omitempty"`
	PeriodStart    time.Time                          `gorm:"not null" json:"periodStart"`
	PeriodEnd      time.Time                          `gorm:"not null" json:"periodEnd"`
	Status         ReviewStatus                       `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Ratings        datatypes.JSONType[map[string]int] `json:"ratings"`
	OverallRating  decimal.NullDecimal                `gorm:"type:numeric(4,2)" json:"overallRating"`
	Strengths      string                             `gorm:"type:text" json:"strengths"`
	Improvements   string                             `gorm:"type:text" json:"improvements"`
	SubmittedAt    *time.Time                         `json:"submittedAt,omitempty"`
	AcknowledgedAt *time.Time                         `json:"acknowledgedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Goals    []ReviewGoal `gorm:"foreignKey:ReviewID" json:"goals"`
	Employee *Employee    `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

func (PerformanceReview) TableName() string { return "performance_reviews" }

// ReviewGoal is an objective agreed during a review
type ReviewGoal struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ReviewID   uint       `gorm:"not null;index" json:"reviewId"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	TargetDate *time.Time `json:"targetDate,omitempty"`
	Status     GoalStatus `gorm:"size:16;not null;default:'open'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ReviewGoal) TableName() string { return "review_goals" }
