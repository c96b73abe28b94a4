package scheduling

import (
	"errors"
	"testing"

	"clinic-backend/internal/models"
)

func appt(id, doctor, patient, date, tm, status string) models.Appointment {
	return models.Appointment{ID: id, DoctorID: doctor, PatientID: patient, Date: date, Time: tm, Status: status}
}

func TestDefaultWindowSlots(t *testing.T) {
	slots := DefaultWindow.Slots()
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != "09:00" || slots[1] != "09:30" || slots[15] != "16:30" {
		t.Errorf("unexpected slots %v", slots)
	}
}

func TestNewWindow(t *testing.T) {
	w, err := NewWindow("08:00", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := w.Slots(); len(got) != 4 || got[3] != "09:30" {
		t.Errorf("unexpected slots %v", got)
	}

	for _, bad := range [][2]string{{"10:00", "09:00"}, {"09:15", "12:00"}, {"9am", "12:00"}, {"09:00", "09:00"}} {
		if _, err := NewWindow(bad[0], bad[1]); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("NewWindow(%s, %s): expected ErrInvalidWindow, got %v", bad[0], bad[1], err)
		}
	}
}

func TestIsSlot(t *testing.T) {
	cases := map[string]bool{
		"09:00": true,
		"16:30": true,
		"17:00": false,
		"08:30": false,
		"09:15": false,
		"9:00":  false,
		"":      false,
	}
	for in, want := range cases {
		if got := DefaultWindow.IsSlot(in); got != want {
			t.Errorf("IsSlot(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSlotKey(t *testing.T) {
	cases := map[string]string{
		"09:00": "09:00",
		"09:10": "09:00",
		"09:29": "09:00",
		"09:30": "09:30",
		"23:59": "23:30",
		"bogus": "bogus",
	}
	for in, want := range cases {
		if got := SlotKey(in); got != want {
			t.Errorf("SlotKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAvailable(t *testing.T) {
	appts := []models.Appointment{
		appt("A001", "D001", "P001", "2026-10-16", "09:00", models.AppointmentScheduled),
		appt("A002", "D001", "P002", "2026-10-16", "10:30", models.AppointmentCompleted),
		appt("A003", "D001", "P003", "2026-10-16", "11:00", models.AppointmentCancelled),
		appt("A004", "D002", "P004", "2026-10-16", "09:30", models.AppointmentScheduled),
		appt("A005", "D001", "P005", "2026-10-17", "09:30", models.AppointmentScheduled),
	}
	deleted := appt("A006", "D001", "P006", "2026-10-16", "12:00", models.AppointmentScheduled)
	deleted.IsDeleted = true
	appts = append(appts, deleted)

	free := DefaultWindow.Available(appts, "D001", "2026-10-16", "")
	booked := map[string]bool{"09:00": true, "10:30": true}
	if len(free) != 14 {
		t.Fatalf("expected 14 free slots, got %d: %v", len(free), free)
	}
	for _, s := range free {
		if booked[s] {
			t.Errorf("booked slot %s returned as available", s)
		}
	}
	if !contains(free, "11:00") {
		t.Error("cancelled appointment should free its slot")
	}
	if !contains(free, "12:00") {
		t.Error("deleted appointment should free its slot")
	}
	if !contains(free, "09:30") {
		t.Error("other doctor's booking must not block the slot")
	}

	edit := DefaultWindow.Available(appts, "D001", "2026-10-16", "A001")
	if !contains(edit, "09:00") {
		t.Error("excluded appointment should not block its own slot")
	}
}

func TestAvailableNeverReturnsBooked(t *testing.T) {
	var appts []models.Appointment
	for i, s := range DefaultWindow.Slots() {
		if i%3 == 0 {
			appts = append(appts, appt("A"+s, "D001", "P"+s, "2026-10-16", s, models.AppointmentScheduled))
		}
	}
	booked := BookedSlots(appts, "D001", "2026-10-16", "")
	for _, s := range DefaultWindow.Available(appts, "D001", "2026-10-16", "") {
		if booked[s] {
			t.Fatalf("slot %s is both booked and available", s)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
