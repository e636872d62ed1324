package mess

import "time"

// Mess is the top-level household group. AdminUID is empty only transiently:
// a mess created through the normal flow gets its creator as admin, and a
// mess that somehow lost its admin promotes the next member to join.
type Mess struct {
	ID        string    `gorm:"size:8;primaryKey"`
	Name      string    `gorm:"not null"`
	JoinKey   string    `gorm:"size:6;not null"`
	AdminUID  string    `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type Member struct {
	MessID   string    `gorm:"size:8;primaryKey"`
	UserID   string    `gorm:"primaryKey"`
	Name     string    `gorm:"not null"`
	Deposit  float64   `gorm:"type:numeric(12,2);not null;default:0"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// MealEntry is one meal slot for one member on one calendar day.
// Date is the plain "YYYY-MM-DD" string, never a timestamp: storing it as
// text keeps the calendar day identical across timezones.
type MealEntry struct {
	MessID string `gorm:"size:8;primaryKey"`
	UserID string `gorm:"primaryKey"`
	Date   string `gorm:"size:10;primaryKey"`
	Slot   string `gorm:"size:1;primaryKey"`
	Count  int    `gorm:"not null"`
}

type Expense struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	MessID      string  `gorm:"size:8;index;not null"`
	Description string  `gorm:"not null"`
	Amount      float64 `gorm:"type:numeric(12,2);not null"`
	Date        int64   `gorm:"not null"` // epoch milliseconds
	AddedBy     string  `gorm:"not null"`
}
