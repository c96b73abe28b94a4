package models

const (
	TestPending    = "pending"
	TestInProgress = "in_progress"
	TestCompleted  = "completed"
)

// LabTest is a diagnostic test ordered by a doctor and run by a lab technician.
type LabTest struct {
	ID              string  `json:"id" gorm:"primaryKey;size:16"`
	PatientID       string  `json:"patient_id" gorm:"size:16;index"`
	DoctorID        string  `json:"doctor_id" gorm:"size:16;index"`
	LabTechnicianID *string `json:"lab_technician_id" gorm:"size:16;index"`
	TestName        string  `json:"test_name"`
	Status          string  `json:"status" gorm:"size:16;default:'pending'"`
	Result          *string `json:"result"`
	Date            string  `json:"date" gorm:"size:10"`
	Notes           *string `json:"notes"`
	CreateTime      string  `json:"create_time"`
	UpdateTime      string  `json:"update_time"`
	IsDeleted       bool    `json:"is_deleted,omitempty" gorm:"default:false;index"`
}

func (LabTest) TableName() string { return "tests" }

func ValidTestStatus(s string) bool {
	switch s {
	case TestPending, TestInProgress, TestCompleted:
		return true
	}
	return false
}
