// Package scheduling holds the appointment slot arithmetic: the fixed
// 30-minute grid, availability for a doctor's day, and double-booking
// detection over a set of appointments.
package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clinic-backend/internal/models"
)

// SlotMinutes is the length of one bookable slot.
const SlotMinutes = 30

var (
	ErrInvalidSlot   = errors.New("time is not a bookable slot")
	ErrInvalidWindow = errors.New("invalid clinic window")
	ErrDoctorBusy    = errors.New("doctor already has an appointment in this slot")
	ErrPatientBusy   = errors.New("patient already has an appointment in this slot")
)

// Window is the daily range in which slots are offered, [Open, Close).
type Window struct {
	start int // minutes after midnight
	end   int
}

// DefaultWindow is 09:00 to 17:00.
var DefaultWindow = Window{start: 9 * 60, end: 17 * 60}

// NewWindow parses "HH:MM" bounds. Both must fall on the slot grid and
// open must come before close.
func NewWindow(from, to string) (Window, error) {
	start, err := minutesOf(from)
	if err != nil {
		return Window{}, fmt.Errorf("%w: open %q", ErrInvalidWindow, from)
	}
	end, err := minutesOf(to)
	if err != nil {
		return Window{}, fmt.Errorf("%w: close %q", ErrInvalidWindow, to)
	}
	if start%SlotMinutes != 0 || end%SlotMinutes != 0 || start >= end {
		return Window{}, fmt.Errorf("%w: %s-%s", ErrInvalidWindow, from, to)
	}
	return Window{start: start, end: end}, nil
}

// Slots enumerates every slot start in the window.
func (w Window) Slots() []string {
	slots := make([]string, 0, (w.end-w.start)/SlotMinutes)
	for m := w.start; m < w.end; m += SlotMinutes {
		slots = append(slots, formatMinutes(m))
	}
	return slots
}

// IsSlot reports whether t is exactly one of the window's slot starts.
func (w Window) IsSlot(t string) bool {
	m, err := minutesOf(t)
	if err != nil {
		return false
	}
	return m >= w.start && m < w.end && m%SlotMinutes == 0
}

// Available returns the window's slots not held by a non-cancelled
// appointment of doctorID on date. The appointment with excludeID is
// ignored so an edit can keep its own slot.
func (w Window) Available(appts []models.Appointment, doctorID, date, excludeID string) []string {
	booked := BookedSlots(appts, doctorID, date, excludeID)
	slots := w.Slots()
	free := make([]string, 0, len(slots))
	for _, s := range slots {
		if !booked[s] {
			free = append(free, s)
		}
	}
	return free
}

// BookedSlots is the set of slot keys held by doctorID on date.
func BookedSlots(appts []models.Appointment, doctorID, date, excludeID string) map[string]bool {
	booked := make(map[string]bool)
	for _, a := range appts {
		if !holdsSlot(a) || a.DoctorID != doctorID || a.Date != date {
			continue
		}
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		booked[SlotKey(a.Time)] = true
	}
	return booked
}

// SlotKey maps a time of day to the start of its slot ("09:10" -> "09:00").
// Unparsable input is returned unchanged so it still groups with itself.
func SlotKey(t string) string {
	m, err := minutesOf(t)
	if err != nil {
		return t
	}
	return formatMinutes(m - m%SlotMinutes)
}

func holdsSlot(a models.Appointment) bool {
	return a.Status != models.AppointmentCancelled && !a.IsDeleted
}

func minutesOf(t string) (int, error) {
	hh, mm, ok := strings.Cut(t, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, ErrInvalidSlot
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidSlot
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidSlot
	}
	return h*60 + m, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
