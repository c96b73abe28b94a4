package models

// Report is a written medical or lab report for a patient.
type Report struct {
	ID              string  `json:"id" gorm:"primaryKey;size:16"`
	PatientID       string  `json:"patient_id" gorm:"size:16;index"`
	DoctorID        string  `json:"doctor_id" gorm:"size:16;index"`
	TestID          *string `json:"test_id" gorm:"size:16;index"`
	LabTechnicianID *string `json:"lab_technician_id" gorm:"size:16"`
	Title           string  `json:"title"`
	Findings        string  `json:"findings"`
	Date            string  `json:"date" gorm:"size:10"`
	CreateTime      string  `json:"create_time"`
	UpdateTime      string  `json:"update_time"`
	IsDeleted       bool    `json:"is_deleted,omitempty" gorm:"default:false;index"`
}
