package handlers

import (
	"net/http"
	"sort"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/events"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/scheduling"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateAppointmentRequest struct {
	PatientID string  `json:"patient_id"`
	DoctorID  string  `json:"doctor_id" binding:"required"`
	Date      string  `json:"date" binding:"required"`
	Time      string  `json:"time" binding:"required"`
	Reason    string  `json:"reason"`
	Notes     *string `json:"notes"`
}

type UpdateAppointmentRequest struct {
	PatientID *string `json:"patient_id"`
	DoctorID  *string `json:"doctor_id"`
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	Reason    *string `json:"reason"`
	Status    *string `json:"status"`
	Notes     *string `json:"notes"`
}

func validateSlot(date, tm string) error {
	if !utils.ValidDate(date) {
		return badRequest("Invalid date format, expected YYYY-MM-DD")
	}
	if !utils.ValidTime(tm) {
		return badRequest("Invalid time format, expected HH:MM")
	}
	if !clinicWindow.IsSlot(tm) {
		return badRequest("Time must be one of the clinic's 30-minute slots")
	}
	return nil
}

// sameDayBookings loads the live appointments on date that involve the
// doctor or the patient.
func sameDayBookings(tx *gorm.DB, date, doctorID, patientID string) ([]models.Appointment, error) {
	var list []models.Appointment
	err := tx.Where("date = ? AND is_deleted = ? AND status <> ?", date, false, models.AppointmentCancelled).
		Where("(doctor_id = ? OR patient_id = ?)", doctorID, patientID).
		Find(&list).Error
	return list, err
}

// checkSlotFree serializes bookings for a.Date and rejects double bookings.
func checkSlotFree(tx *gorm.DB, a models.Appointment) error {
	if err := database.LockKey(tx, "appointments:"+a.Date); err != nil {
		return err
	}
	existing, err := sameDayBookings(tx, a.Date, a.DoctorID, a.PatientID)
	if err != nil {
		return err
	}
	return scheduling.CheckBooking(existing, a)
}

// appointmentQuery applies the common list filters and the patient scope.
func appointmentQuery(c *gin.Context) *gorm.DB {
	query := database.DB.Where("is_deleted = ?", false)
	if v := c.Query("doctor_id"); v != "" {
		query = query.Where("doctor_id = ?", v)
	}
	if v := c.Query("patient_id"); v != "" {
		query = query.Where("patient_id = ?", v)
	}
	if v := c.Query("date"); v != "" {
		query = query.Where("date = ?", v)
	}
	return patientScope(c, query, "patient_id")
}

// annotateInContext flags conflicts in list against every live booking that
// shares a date with it and involves one of its doctors or patients, so list
// filters and the patient scope cannot hide the other half of a double booking.
func annotateInContext(db *gorm.DB, list []models.Appointment) ([]scheduling.Annotated, error) {
	if len(list) == 0 {
		return []scheduling.Annotated{}, nil
	}
	dates := make(map[string]bool)
	doctors := make(map[string]bool)
	patients := make(map[string]bool)
	for _, a := range list {
		dates[a.Date] = true
		doctors[a.DoctorID] = true
		patients[a.PatientID] = true
	}

	var related []models.Appointment
	err := db.Where("is_deleted = ? AND status <> ? AND date IN ?", false, models.AppointmentCancelled, keys(dates)).
		Where("(doctor_id IN ? OR patient_id IN ?)", keys(doctors), keys(patients)).
		Find(&related).Error
	if err != nil {
		return nil, err
	}
	flagged := make(map[string]scheduling.Annotated, len(related))
	for _, a := range scheduling.Annotate(related) {
		flagged[a.ID] = a
	}

	out := make([]scheduling.Annotated, len(list))
	for i, a := range list {
		out[i] = scheduling.Annotated{Appointment: a}
		if f, ok := flagged[a.ID]; ok {
			out[i].HasConflict = f.HasConflict
			out[i].ConflictType = f.ConflictType
		}
	}
	return out, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// ListAppointments returns appointments annotated with double-booking flags.
func ListAppointments(c *gin.Context) {
	query := appointmentQuery(c)
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	var list []models.Appointment
	if err := query.Order("date asc, time asc, id asc").Find(&list).Error; err != nil {
		respondServerError(c, "Database error fetching appointments", err)
		return
	}
	annotated, err := annotateInContext(database.DB, list)
	if err != nil {
		respondServerError(c, "Database error checking conflicts", err)
		return
	}
	c.JSON(http.StatusOK, annotated)
}

// ListConflicts returns only the double-booked appointments.
func ListConflicts(c *gin.Context) {
	var list []models.Appointment
	err := appointmentQuery(c).
		Where("status <> ?", models.AppointmentCancelled).
		Order("date asc, time asc, id asc").
		Find(&list).Error
	if err != nil {
		respondServerError(c, "Database error fetching appointments", err)
		return
	}
	annotated, err := annotateInContext(database.DB, list)
	if err != nil {
		respondServerError(c, "Database error checking conflicts", err)
		return
	}
	c.JSON(http.StatusOK, scheduling.ConflictsOnly(annotated))
}

// AvailableSlots lists the free slots of a doctor's day. exclude_id leaves
// one appointment's slot open for edit forms.
func AvailableSlots(c *gin.Context) {
	doctorID := c.Query("doctor_id")
	date := c.Query("date")
	if doctorID == "" || date == "" {
		respondMessage(c, http.StatusBadRequest, "doctor_id and date are required")
		return
	}
	if !utils.ValidDate(date) {
		respondMessage(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	if err := requireExists(database.DB, &models.Doctor{}, doctorID, "Doctor"); err != nil {
		respondError(c, "Database error fetching doctor", err)
		return
	}

	var booked []models.Appointment
	err := database.DB.
		Where("doctor_id = ? AND date = ? AND is_deleted = ? AND status <> ?", doctorID, date, false, models.AppointmentCancelled).
		Find(&booked).Error
	if err != nil {
		respondServerError(c, "Database error fetching appointments", err)
		return
	}

	excludeID := c.Query("exclude_id")
	taken := make([]string, 0)
	for slot := range scheduling.BookedSlots(booked, doctorID, date, excludeID) {
		taken = append(taken, slot)
	}
	sort.Strings(taken)

	c.JSON(http.StatusOK, gin.H{
		"doctor_id":    doctorID,
		"date":         date,
		"slots":        clinicWindow.Available(booked, doctorID, date, excludeID),
		"booked_slots": taken,
	})
}

func GetAppointment(c *gin.Context) {
	var a models.Appointment
	if err := loadLive(database.DB, &a, c.Param("id"), "Appointment"); err != nil {
		respondError(c, "Database error fetching appointment", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && a.PatientID != uid {
		respondMessage(c, http.StatusForbidden, "Patients can only view their own appointments")
		return
	}
	c.JSON(http.StatusOK, a)
}

func CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient {
		if req.PatientID != "" && req.PatientID != uid {
			respondMessage(c, http.StatusForbidden, "Patients can only book for themselves")
			return
		}
		req.PatientID = uid
	}
	if req.PatientID == "" {
		respondMessage(c, http.StatusBadRequest, "patient_id is required")
		return
	}
	req.Time = strings.TrimSpace(req.Time)
	if err := validateSlot(req.Date, req.Time); err != nil {
		respondError(c, "Invalid appointment", err)
		return
	}

	now := utils.Now()
	appt := models.Appointment{
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		Date:       req.Date,
		Time:       req.Time,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     models.AppointmentScheduled,
		Notes:      req.Notes,
		CreateTime: now,
		UpdateTime: now,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Doctor{}, appt.DoctorID, "Doctor"); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Patient{}, appt.PatientID, "Patient"); err != nil {
			return err
		}
		if err := checkSlotFree(tx, appt); err != nil {
			return err
		}
		id, err := nextID(tx, &models.Appointment{}, "A")
		if err != nil {
			return err
		}
		appt.ID = id
		return tx.Create(&appt).Error
	})
	if err != nil {
		respondError(c, "Failed to create appointment", err)
		return
	}

	events.Emit(c.Request.Context(), events.AppointmentCreated, appt)
	c.JSON(http.StatusCreated, appt)
}

func UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	uid, role := middleware.CurrentUser(c)

	var appt models.Appointment
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &appt, c.Param("id"), "Appointment"); err != nil {
			return err
		}
		if role == models.RolePatient {
			if appt.PatientID != uid {
				return forbidden("Patients can only modify their own appointments")
			}
			if req.PatientID != nil && *req.PatientID != uid {
				return forbidden("Patients cannot reassign appointments")
			}
			if req.Status != nil && *req.Status != appt.Status && *req.Status != models.AppointmentCancelled {
				return forbidden("Patients can only cancel appointments")
			}
		}

		before := appt
		if req.DoctorID != nil && *req.DoctorID != appt.DoctorID {
			if err := requireExists(tx, &models.Doctor{}, *req.DoctorID, "Doctor"); err != nil {
				return err
			}
			appt.DoctorID = *req.DoctorID
		}
		if req.PatientID != nil && *req.PatientID != appt.PatientID {
			if err := requireExists(tx, &models.Patient{}, *req.PatientID, "Patient"); err != nil {
				return err
			}
			appt.PatientID = *req.PatientID
		}
		if req.Date != nil {
			appt.Date = *req.Date
		}
		if req.Time != nil {
			appt.Time = strings.TrimSpace(*req.Time)
		}
		moved := appt.Date != before.Date || appt.Time != before.Time
		if moved {
			if err := validateSlot(appt.Date, appt.Time); err != nil {
				return err
			}
		}
		if req.Status != nil {
			if !models.ValidAppointmentStatus(*req.Status) {
				return badRequest("Invalid status")
			}
			appt.Status = *req.Status
		}
		if req.Reason != nil {
			appt.Reason = strings.TrimSpace(*req.Reason)
		}
		if req.Notes != nil {
			appt.Notes = req.Notes
		}

		// Only a change of party, slot or a revival can create a double
		// booking; rows already in conflict stay editable otherwise.
		reslotted := moved || appt.DoctorID != before.DoctorID || appt.PatientID != before.PatientID ||
			(before.Status == models.AppointmentCancelled && appt.Status != models.AppointmentCancelled)
		if reslotted {
			if err := checkSlotFree(tx, appt); err != nil {
				return err
			}
		}
		appt.UpdateTime = utils.Now()
		return tx.Save(&appt).Error
	})
	if err != nil {
		respondError(c, "Failed to update appointment", err)
		return
	}

	events.Emit(c.Request.Context(), events.AppointmentUpdated, appt)
	c.JSON(http.StatusOK, appt)
}

func DeleteAppointment(c *gin.Context) {
	var appt models.Appointment
	if err := loadLive(database.DB, &appt, c.Param("id"), "Appointment"); err != nil {
		respondError(c, "Database error fetching appointment", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && appt.PatientID != uid {
		respondMessage(c, http.StatusForbidden, "Patients can only delete their own appointments")
		return
	}

	appt.IsDeleted = true
	appt.UpdateTime = utils.Now()
	if err := database.DB.Save(&appt).Error; err != nil {
		respondServerError(c, "Failed to delete appointment", err)
		return
	}

	events.Emit(c.Request.Context(), events.AppointmentDeleted, gin.H{"id": appt.ID})
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
