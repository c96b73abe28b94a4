package scheduling

import (
	"clinic-backend/internal/models"
)

const (
	ConflictDoctor  = "doctor"
	ConflictPatient = "patient"
	ConflictBoth    = "both"
)

// Annotated is an appointment plus its double-booking status.
type Annotated struct {
	models.Appointment
	HasConflict  bool   `json:"has_conflict"`
	ConflictType string `json:"conflict_type,omitempty"`
}

// party -> date -> slot -> number of appointments holding it
type slotCounts map[string]map[string]map[string]int

func (sc slotCounts) add(party, date, slot string) {
	byDate, ok := sc[party]
	if !ok {
		byDate = make(map[string]map[string]int)
		sc[party] = byDate
	}
	bySlot, ok := byDate[date]
	if !ok {
		bySlot = make(map[string]int)
		byDate[date] = bySlot
	}
	bySlot[slot]++
}

func (sc slotCounts) get(party, date, slot string) int {
	return sc[party][date][slot]
}

// Annotate flags every non-cancelled appointment that shares its doctor or
// its patient, date and slot with another non-cancelled appointment.
// Cancelled and deleted rows are neither counted nor flagged.
// The result keeps the input order.
func Annotate(appts []models.Appointment) []Annotated {
	doctors := make(slotCounts)
	patients := make(slotCounts)
	for _, a := range appts {
		if !holdsSlot(a) {
			continue
		}
		slot := SlotKey(a.Time)
		doctors.add(a.DoctorID, a.Date, slot)
		patients.add(a.PatientID, a.Date, slot)
	}

	out := make([]Annotated, len(appts))
	for i, a := range appts {
		out[i] = Annotated{Appointment: a}
		if !holdsSlot(a) {
			continue
		}
		slot := SlotKey(a.Time)
		doctorClash := doctors.get(a.DoctorID, a.Date, slot) > 1
		patientClash := patients.get(a.PatientID, a.Date, slot) > 1
		switch {
		case doctorClash && patientClash:
			out[i].ConflictType = ConflictBoth
		case doctorClash:
			out[i].ConflictType = ConflictDoctor
		case patientClash:
			out[i].ConflictType = ConflictPatient
		}
		out[i].HasConflict = out[i].ConflictType != ""
	}
	return out
}

// ConflictsOnly keeps the flagged entries of an annotated list.
func ConflictsOnly(annotated []Annotated) []Annotated {
	out := make([]Annotated, 0)
	for _, a := range annotated {
		if a.HasConflict {
			out = append(out, a)
		}
	}
	return out
}

// CheckBooking reports whether candidate would double-book its doctor or
// patient against existing. An existing row with the candidate's id is
// skipped, which makes the check usable for updates. A cancelled candidate
// never conflicts.
func CheckBooking(existing []models.Appointment, candidate models.Appointment) error {
	if !holdsSlot(candidate) {
		return nil
	}
	slot := SlotKey(candidate.Time)
	for _, a := range existing {
		if a.ID == candidate.ID || !holdsSlot(a) || a.Date != candidate.Date || SlotKey(a.Time) != slot {
			continue
		}
		if a.DoctorID == candidate.DoctorID {
			return ErrDoctorBusy
		}
		if a.PatientID == candidate.PatientID {
			return ErrPatientBusy
		}
	}
	return nil
}
