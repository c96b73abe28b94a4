package models

import "gorm.io/datatypes"

// Medicine is one line of a prescription.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Prescription stores its medicines as a JSON column.
type Prescription struct {
	ID            string                        `json:"id" gorm:"primaryKey;size:16"`
	PatientID     string                        `json:"patient_id" gorm:"size:16;index"`
	DoctorID      string                        `json:"doctor_id" gorm:"size:16;index"`
	AppointmentID *string                       `json:"appointment_id" gorm:"size:16;index"`
	Medicines     datatypes.JSONSlice[Medicine] `json:"medicines"`
	Instructions  *string                       `json:"instructions"`
	Date          string                        `json:"date" gorm:"size:10"`
	CreateTime    string                        `json:"create_time"`
	UpdateTime    string                        `json:"update_time"`
	IsDeleted     bool                          `json:"is_deleted,omitempty" gorm:"default:false;index"`
}
