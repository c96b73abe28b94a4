package models

// Patient defines the structure for verified patient records.
type Patient struct {
	ID string `json:"id" gorm:"primaryKey;size:16"`
	Account
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
	Address    *string `json:"address"`
	BloodGroup *string `json:"blood_group"`
	CreateTime string  `json:"create_time"`
	UpdateTime string  `json:"update_time"`
	IsDeleted  bool    `json:"is_deleted,omitempty" gorm:"default:false;index"`
}
