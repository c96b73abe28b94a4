package models

// UserVisit is one page view reported by the client.
type UserVisit struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	Page      string  `json:"page"`
	Role      *string `json:"role" gorm:"size:32;index"`
	UserID    *string `json:"user_id" gorm:"size:16"`
	IP        string  `json:"ip"`
	UserAgent string  `json:"user_agent"`
	VisitDate string  `json:"visit_date" gorm:"size:10;index"` // YYYY-MM-DD
	VisitedAt string  `json:"visited_at"`
}
