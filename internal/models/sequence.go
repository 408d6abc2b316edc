package models

// DocumentSequence is the per-tenant counter behind human-readable numbers.
// Year is 0 for sequences that do not reset yearly.
type DocumentSequence struct {
	Scope     string `gorm:"primaryKey;size:16"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64  `gorm:"not null;default:0"`
}

func (DocumentSequence) TableName() string { return "document_sequences" }
