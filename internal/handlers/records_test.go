package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"clinic-backend/internal/events"
	"clinic-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type recordedEvents struct {
	mu    sync.Mutex
	types []string
}

func (r *recordedEvents) Publish(_ context.Context, eventType string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
	return nil
}

func (r *recordedEvents) Close() error { return nil }

func (r *recordedEvents) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == eventType {
			n++
		}
	}
	return n
}

func recordEvents(t *testing.T) *recordedEvents {
	rec := &recordedEvents{}
	prev := events.Default
	events.Default = rec
	t.Cleanup(func() { events.Default = prev })
	return rec
}

func TestLabTestLifecycle(t *testing.T) {
	r := setupRouter(t)
	rec := recordEvents(t)
	createDoctor(t, r, "doc")
	p := createPatient(t, r, "pat")
	lt := createLabTechnician(t, r, "tech")
	doctor := login(t, r, "doc", "doctor")
	tech := login(t, r, "tech", "lab_technician")

	w := doJSON(r, http.MethodPost, "/api/tests", gin.H{"patient_id": p, "test_name": "CBC", "date": "2030-05-14"}, bearer(doctor))
	expectStatus(t, w, http.StatusCreated)
	var test models.LabTest
	decode(t, w, &test)
	if test.ID != "T001" || test.DoctorID != "D001" || test.Status != models.TestPending {
		t.Fatalf("unexpected test %+v", test)
	}

	w = doJSON(r, http.MethodPut, "/api/tests/T001", gin.H{"status": "done"}, bearer(tech))
	expectStatus(t, w, http.StatusBadRequest)

	w = doJSON(r, http.MethodPut, "/api/tests/T001", gin.H{"status": "completed", "result": "normal"}, bearer(tech))
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &test)
	if test.LabTechnicianID == nil || *test.LabTechnicianID != lt {
		t.Errorf("technician should own the test, got %v", test.LabTechnicianID)
	}
	if rec.count(events.TestCompleted) != 1 {
		t.Errorf("expected one completion event, got %v", rec.types)
	}

	// completing again is not a new transition
	doJSON(r, http.MethodPut, "/api/tests/T001", gin.H{"status": "completed"}, bearer(tech))
	if rec.count(events.TestCompleted) != 1 {
		t.Errorf("expected a single completion event, got %v", rec.types)
	}

	w = doJSON(r, http.MethodGet, "/api/tests?status=completed", nil, bearer(doctor))
	expectStatus(t, w, http.StatusOK)
	var list []models.LabTest
	decode(t, w, &list)
	if len(list) != 1 {
		t.Errorf("expected one completed test, got %d", len(list))
	}

	expectStatus(t, doJSON(r, http.MethodDelete, "/api/tests/T001", nil, bearer(tech)), http.StatusForbidden)
	expectStatus(t, doJSON(r, http.MethodDelete, "/api/tests/T001", nil, bearer(doctor)), http.StatusOK)
}

func TestPrescriptions(t *testing.T) {
	r := setupRouter(t)
	createDoctor(t, r, "doc1")
	createDoctor(t, r, "doc2")
	p := createPatient(t, r, "pat")
	createPatient(t, r, "other")
	doc1 := login(t, r, "doc1", "doctor")
	doc2 := login(t, r, "doc2", "doctor")

	body := gin.H{
		"patient_id": p,
		"medicines": []gin.H{
			{"name": "Amoxicillin", "dosage": "500mg", "frequency": "3x daily", "duration": "7 days"},
			{"name": "Ibuprofen", "dosage": "200mg", "frequency": "as needed"},
		},
	}
	w := doJSON(r, http.MethodPost, "/api/prescriptions", body, bearer(doc1))
	expectStatus(t, w, http.StatusCreated)
	var rx models.Prescription
	decode(t, w, &rx)
	if rx.ID != "RX001" || rx.DoctorID != "D001" {
		t.Fatalf("unexpected prescription %+v", rx)
	}

	w = doJSON(r, http.MethodGet, "/api/prescriptions/RX001", nil, asAdmin)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &rx)
	if len(rx.Medicines) != 2 || rx.Medicines[1].Name != "Ibuprofen" {
		t.Errorf("medicines did not round-trip: %+v", rx.Medicines)
	}

	tests := []struct {
		name    string
		method  string
		path    string
		body    interface{}
		headers map[string]string
		want    int
	}{
		{"no medicines", http.MethodPost, "/api/prescriptions", gin.H{"patient_id": p, "medicines": []gin.H{}}, bearer(doc1), http.StatusBadRequest},
		{"unnamed medicine", http.MethodPost, "/api/prescriptions", gin.H{"patient_id": p, "medicines": []gin.H{{"dosage": "1"}}}, bearer(doc1), http.StatusBadRequest},
		{"unknown appointment", http.MethodPost, "/api/prescriptions", gin.H{"patient_id": p, "appointment_id": "A404", "medicines": []gin.H{{"name": "x"}}}, bearer(doc1), http.StatusNotFound},
		{"other doctor edits", http.MethodPut, "/api/prescriptions/RX001", gin.H{"instructions": "none"}, bearer(doc2), http.StatusForbidden},
		{"other doctor deletes", http.MethodDelete, "/api/prescriptions/RX001", nil, bearer(doc2), http.StatusForbidden},
		{"prescriber edits", http.MethodPut, "/api/prescriptions/RX001", gin.H{"instructions": "after meals"}, bearer(doc1), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, doJSON(r, tt.method, tt.path, tt.body, tt.headers), tt.want)
		})
	}

	other := login(t, r, "other", "patient")
	w = doJSON(r, http.MethodGet, "/api/prescriptions", nil, bearer(other))
	expectStatus(t, w, http.StatusOK)
	var list []models.Prescription
	decode(t, w, &list)
	if len(list) != 0 {
		t.Errorf("patient should not see other prescriptions, got %d", len(list))
	}
	expectStatus(t, doJSON(r, http.MethodGet, "/api/prescriptions/RX001", nil, bearer(other)), http.StatusForbidden)
}

func TestReports(t *testing.T) {
	r := setupRouter(t)
	createDoctor(t, r, "doc")
	p1 := createPatient(t, r, "pat1")
	p2 := createPatient(t, r, "pat2")
	lt := createLabTechnician(t, r, "tech")
	doctor := login(t, r, "doc", "doctor")
	tech := login(t, r, "tech", "lab_technician")

	w := doJSON(r, http.MethodPost, "/api/tests", gin.H{"patient_id": p1, "test_name": "Lipid panel"}, bearer(doctor))
	expectStatus(t, w, http.StatusCreated)

	w = doJSON(r, http.MethodPost, "/api/reports", gin.H{
		"patient_id": p1, "test_id": "T001", "title": "Lipid panel", "findings": "LDL slightly high",
	}, bearer(tech))
	expectStatus(t, w, http.StatusCreated)
	var rep models.Report
	decode(t, w, &rep)
	if rep.ID != "RP001" || rep.DoctorID != "D001" {
		t.Errorf("report should inherit the ordering doctor: %+v", rep)
	}
	if rep.LabTechnicianID == nil || *rep.LabTechnicianID != lt {
		t.Errorf("report should name the technician: %v", rep.LabTechnicianID)
	}

	w = doJSON(r, http.MethodPost, "/api/reports", gin.H{
		"patient_id": p2, "test_id": "T001", "title": "Lipid panel", "findings": "n/a",
	}, bearer(tech))
	expectStatus(t, w, http.StatusBadRequest)

	w = doJSON(r, http.MethodPost, "/api/reports", gin.H{
		"patient_id": p2, "title": "Note", "findings": "n/a",
	}, bearer(tech))
	expectStatus(t, w, http.StatusBadRequest)

	w = doJSON(r, http.MethodGet, "/api/reports?patient_id="+p1, nil, bearer(doctor))
	expectStatus(t, w, http.StatusOK)
	var list []models.Report
	decode(t, w, &list)
	if len(list) != 1 {
		t.Errorf("expected one report, got %d", len(list))
	}
}

func TestTestAndReportOwnership(t *testing.T) {
	r := setupRouter(t)
	createDoctor(t, r, "doc1")
	createDoctor(t, r, "doc2")
	p := createPatient(t, r, "pat")
	createLabTechnician(t, r, "tech1")
	lt2 := createLabTechnician(t, r, "tech2")
	doc1 := login(t, r, "doc1", "doctor")
	doc2 := login(t, r, "doc2", "doctor")
	tech1 := login(t, r, "tech1", "lab_technician")
	tech2 := login(t, r, "tech2", "lab_technician")

	expectStatus(t, doJSON(r, http.MethodPost, "/api/tests", gin.H{"patient_id": p, "test_name": "CBC"}, bearer(doc1)), http.StatusCreated)
	expectStatus(t, doJSON(r, http.MethodPost, "/api/tests", gin.H{"patient_id": p, "test_name": "TSH"}, bearer(doc1)), http.StatusCreated)
	// tech1 picks up T001
	expectStatus(t, doJSON(r, http.MethodPut, "/api/tests/T001", gin.H{"status": "in_progress"}, bearer(tech1)), http.StatusOK)
	w := doJSON(r, http.MethodPost, "/api/reports", gin.H{
		"patient_id": p, "test_id": "T001", "title": "CBC", "findings": "normal",
	}, bearer(tech1))
	expectStatus(t, w, http.StatusCreated)

	tests := []struct {
		name    string
		method  string
		path    string
		body    interface{}
		headers map[string]string
		want    int
	}{
		{"other doctor edits test", http.MethodPut, "/api/tests/T001", gin.H{"notes": "x"}, bearer(doc2), http.StatusForbidden},
		{"other doctor deletes test", http.MethodDelete, "/api/tests/T001", nil, bearer(doc2), http.StatusForbidden},
		{"other technician edits assigned test", http.MethodPut, "/api/tests/T001", gin.H{"result": "x"}, bearer(tech2), http.StatusForbidden},
		{"technician assigns someone else", http.MethodPut, "/api/tests/T002", gin.H{"lab_technician_id": lt2}, bearer(tech1), http.StatusForbidden},
		{"other technician edits report", http.MethodPut, "/api/reports/RP001", gin.H{"findings": "x"}, bearer(tech2), http.StatusForbidden},
		{"other doctor edits report", http.MethodPut, "/api/reports/RP001", gin.H{"findings": "x"}, bearer(doc2), http.StatusForbidden},
		{"other doctor deletes report", http.MethodDelete, "/api/reports/RP001", nil, bearer(doc2), http.StatusForbidden},
		{"technician edits own report", http.MethodPut, "/api/reports/RP001", gin.H{"findings": "mild anaemia"}, bearer(tech1), http.StatusOK},
		{"ordering doctor edits test", http.MethodPut, "/api/tests/T001", gin.H{"notes": "urgent"}, bearer(doc1), http.StatusOK},
		{"technician edits unassigned test", http.MethodPut, "/api/tests/T002", gin.H{"status": "in_progress"}, bearer(tech2), http.StatusOK},
		{"reporting doctor deletes report", http.MethodDelete, "/api/reports/RP001", nil, bearer(doc1), http.StatusOK},
		{"ordering doctor deletes test", http.MethodDelete, "/api/tests/T001", nil, bearer(doc1), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, doJSON(r, tt.method, tt.path, tt.body, tt.headers), tt.want)
		})
	}
}
