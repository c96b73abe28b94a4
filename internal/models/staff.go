package models

// Receptionist defines the structure for front-desk users.
type Receptionist struct {
	ID string `json:"id" gorm:"primaryKey;size:16"`
	Account
	CreateTime string `json:"create_time"`
	UpdateTime string `json:"update_time"`
	IsDeleted  bool   `json:"is_deleted,omitempty" gorm:"default:false;index"`
}

// LabTechnician defines the structure for laboratory staff.
type LabTechnician struct {
	ID string `json:"id" gorm:"primaryKey;size:16"`
	Account
	LabSection *string `json:"lab_section"`
	CreateTime string  `json:"create_time"`
	UpdateTime string  `json:"update_time"`
	IsDeleted  bool    `json:"is_deleted,omitempty" gorm:"default:false;index"`
}
