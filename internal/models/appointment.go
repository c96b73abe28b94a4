package models

const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment books a patient into a doctor's 30-minute slot.
// Date is "YYYY-MM-DD" and Time is the slot start "HH:MM".
type Appointment struct {
	ID         string  `json:"id" gorm:"primaryKey;size:16"`
	PatientID  string  `json:"patient_id" gorm:"size:16;index"`
	DoctorID   string  `json:"doctor_id" gorm:"size:16;index"`
	Date       string  `json:"date" gorm:"size:10;index"`
	Time       string  `json:"time" gorm:"size:5"`
	Reason     string  `json:"reason"`
	Status     string  `json:"status" gorm:"size:16;default:'scheduled'"`
	Notes      *string `json:"notes"`
	CreateTime string  `json:"create_time"`
	UpdateTime string  `json:"update_time"`
	IsDeleted  bool    `json:"is_deleted,omitempty" gorm:"default:false;index"`
}

// ValidAppointmentStatus reports whether s is a known appointment status.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}
