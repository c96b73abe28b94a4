package models

// Pending registrations wait here until an administrator verifies them.
// Verification copies the row into the verified table under a new prefixed id.

type PendingDoctor struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Account
	Specialization string  `json:"specialization"`
	Qualification  *string `json:"qualification"`
	CreateTime     string  `json:"create_time"`
}

type PendingPatient struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Account
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
	Address    *string `json:"address"`
	BloodGroup *string `json:"blood_group"`
	CreateTime string  `json:"create_time"`
}

type PendingReceptionist struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Account
	CreateTime string `json:"create_time"`
}

type PendingLabTechnician struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Account
	LabSection *string `json:"lab_section"`
	CreateTime string  `json:"create_time"`
}
