package models

// Doctor defines the structure for verified doctor users.
type Doctor struct {
	ID string `json:"id" gorm:"primaryKey;size:16"`
	Account
	Specialization string  `json:"specialization"`
	Qualification  *string `json:"qualification"`
	CreateTime     string  `json:"create_time"`
	UpdateTime     string  `json:"update_time"`
	IsDeleted      bool    `json:"is_deleted,omitempty" gorm:"default:false;index"`
}
