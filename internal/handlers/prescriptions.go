package handlers

import (
	"net/http"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreatePrescriptionRequest struct {
	PatientID     string            `json:"patient_id" binding:"required"`
	DoctorID      string            `json:"doctor_id"`
	AppointmentID *string           `json:"appointment_id"`
	Medicines     []models.Medicine `json:"medicines" binding:"required,min=1"`
	Instructions  *string           `json:"instructions"`
	Date          string            `json:"date"`
}

type UpdatePrescriptionRequest struct {
	Medicines    []models.Medicine `json:"medicines" binding:"omitempty,min=1"`
	Instructions *string           `json:"instructions"`
	Date         *string           `json:"date"`
}

func validMedicines(meds []models.Medicine) error {
	for i := range meds {
		meds[i].Name = strings.TrimSpace(meds[i].Name)
		if meds[i].Name == "" {
			return badRequest("Every medicine needs a name")
		}
	}
	return nil
}

func ListPrescriptions(c *gin.Context) {
	query := database.DB.Where("is_deleted = ?", false)
	for _, col := range []string{"patient_id", "doctor_id", "appointment_id"} {
		if v := c.Query(col); v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	query = patientScope(c, query, "patient_id")

	var list []models.Prescription
	if err := query.Order("date desc, id desc").Find(&list).Error; err != nil {
		respondServerError(c, "Database error fetching prescriptions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func GetPrescription(c *gin.Context) {
	var p models.Prescription
	if err := loadLive(database.DB, &p, c.Param("id"), "Prescription"); err != nil {
		respondError(c, "Database error fetching prescription", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && p.PatientID != uid {
		respondMessage(c, http.StatusForbidden, "Patients can only view their own prescriptions")
		return
	}
	c.JSON(http.StatusOK, p)
}

func CreatePrescription(c *gin.Context) {
	var req CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.DoctorID = callerDoctorID(c, req.DoctorID)
	if req.DoctorID == "" {
		respondMessage(c, http.StatusBadRequest, "doctor_id is required")
		return
	}
	if req.Date == "" {
		req.Date = utils.Today()
	}
	if !utils.ValidDate(req.Date) {
		respondMessage(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	if err := validMedicines(req.Medicines); err != nil {
		respondError(c, "Invalid prescription", err)
		return
	}

	now := utils.Now()
	p := models.Prescription{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		AppointmentID: req.AppointmentID,
		Medicines:     datatypes.JSONSlice[models.Medicine](req.Medicines),
		Instructions:  req.Instructions,
		Date:          req.Date,
		CreateTime:    now,
		UpdateTime:    now,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Patient{}, p.PatientID, "Patient"); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Doctor{}, p.DoctorID, "Doctor"); err != nil {
			return err
		}
		if p.AppointmentID != nil {
			if err := requireExists(tx, &models.Appointment{}, *p.AppointmentID, "Appointment"); err != nil {
				return err
			}
		}
		id, err := nextID(tx, &models.Prescription{}, "RX")
		if err != nil {
			return err
		}
		p.ID = id
		return tx.Create(&p).Error
	})
	if err != nil {
		respondError(c, "Failed to create prescription", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePrescription lets only the prescribing doctor (or the admin) edit.
func UpdatePrescription(c *gin.Context) {
	var req UpdatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	uid, role := middleware.CurrentUser(c)

	var p models.Prescription
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &p, c.Param("id"), "Prescription"); err != nil {
			return err
		}
		if role == models.RoleDoctor && p.DoctorID != uid {
			return forbidden("Only the prescribing doctor can edit this prescription")
		}
		if req.Medicines != nil {
			if err := validMedicines(req.Medicines); err != nil {
				return err
			}
			p.Medicines = datatypes.JSONSlice[models.Medicine](req.Medicines)
		}
		if req.Instructions != nil {
			p.Instructions = req.Instructions
		}
		if req.Date != nil {
			if !utils.ValidDate(*req.Date) {
				return badRequest("Invalid date format, expected YYYY-MM-DD")
			}
			p.Date = *req.Date
		}
		p.UpdateTime = utils.Now()
		return tx.Save(&p).Error
	})
	if err != nil {
		respondError(c, "Failed to update prescription", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func DeletePrescription(c *gin.Context) {
	var p models.Prescription
	if err := loadLive(database.DB, &p, c.Param("id"), "Prescription"); err != nil {
		respondError(c, "Database error fetching prescription", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RoleDoctor && p.DoctorID != uid {
		respondMessage(c, http.StatusForbidden, "Only the prescribing doctor can delete this prescription")
		return
	}
	p.IsDeleted = true
	p.UpdateTime = utils.Now()
	if err := database.DB.Save(&p).Error; err != nil {
		respondServerError(c, "Failed to delete prescription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prescription deleted successfully"})
}
