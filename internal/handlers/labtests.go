package handlers

import (
	"net/http"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/events"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTestRequest struct {
	PatientID       string  `json:"patient_id" binding:"required"`
	DoctorID        string  `json:"doctor_id"`
	LabTechnicianID *string `json:"lab_technician_id"`
	TestName        string  `json:"test_name" binding:"required"`
	Date            string  `json:"date"`
	Notes           *string `json:"notes"`
}

type UpdateTestRequest struct {
	LabTechnicianID *string `json:"lab_technician_id"`
	TestName        *string `json:"test_name"`
	Status          *string `json:"status"`
	Result          *string `json:"result"`
	Date            *string `json:"date"`
	Notes           *string `json:"notes"`
}

// callerDoctorID fills an omitted doctor id from a doctor caller.
func callerDoctorID(c *gin.Context, doctorID string) string {
	uid, role := middleware.CurrentUser(c)
	if doctorID == "" && role == models.RoleDoctor {
		return uid
	}
	return doctorID
}

func ListTests(c *gin.Context) {
	query := database.DB.Where("is_deleted = ?", false)
	for _, col := range []string{"patient_id", "doctor_id", "lab_technician_id", "status"} {
		if v := c.Query(col); v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	query = patientScope(c, query, "patient_id")

	var tests []models.LabTest
	if err := query.Order("date desc, id desc").Find(&tests).Error; err != nil {
		respondServerError(c, "Database error fetching tests", err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

func GetTest(c *gin.Context) {
	var t models.LabTest
	if err := loadLive(database.DB, &t, c.Param("id"), "Test"); err != nil {
		respondError(c, "Database error fetching test", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && t.PatientID != uid {
		respondMessage(c, http.StatusForbidden, "Patients can only view their own tests")
		return
	}
	c.JSON(http.StatusOK, t)
}

func CreateTest(c *gin.Context) {
	var req CreateTestRequest
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

	now := utils.Now()
	test := models.LabTest{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		LabTechnicianID: req.LabTechnicianID,
		TestName:        strings.TrimSpace(req.TestName),
		Status:          models.TestPending,
		Date:            req.Date,
		Notes:           req.Notes,
		CreateTime:      now,
		UpdateTime:      now,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Patient{}, test.PatientID, "Patient"); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Doctor{}, test.DoctorID, "Doctor"); err != nil {
			return err
		}
		if test.LabTechnicianID != nil {
			if err := requireExists(tx, &models.LabTechnician{}, *test.LabTechnicianID, "Lab technician"); err != nil {
				return err
			}
		}
		id, err := nextID(tx, &models.LabTest{}, "T")
		if err != nil {
			return err
		}
		test.ID = id
		return tx.Create(&test).Error
	})
	if err != nil {
		respondError(c, "Failed to create test", err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

func UpdateTest(c *gin.Context) {
	var req UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	uid, role := middleware.CurrentUser(c)

	var test models.LabTest
	completed := false
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &test, c.Param("id"), "Test"); err != nil {
			return err
		}
		switch role {
		case models.RoleDoctor:
			if test.DoctorID != uid {
				return forbidden("Only the ordering doctor can edit this test")
			}
		case models.RoleLabTechnician:
			if test.LabTechnicianID != nil && *test.LabTechnicianID != uid {
				return forbidden("Test is assigned to another lab technician")
			}
			if req.LabTechnicianID != nil && *req.LabTechnicianID != uid {
				return forbidden("Lab technicians can only assign tests to themselves")
			}
		}
		if req.LabTechnicianID != nil {
			if err := requireExists(tx, &models.LabTechnician{}, *req.LabTechnicianID, "Lab technician"); err != nil {
				return err
			}
			test.LabTechnicianID = req.LabTechnicianID
		} else if role == models.RoleLabTechnician && test.LabTechnicianID == nil {
			// the technician picking up an unassigned test owns it
			test.LabTechnicianID = &uid
		}
		if req.TestName != nil {
			test.TestName = strings.TrimSpace(*req.TestName)
		}
		if req.Status != nil {
			if !models.ValidTestStatus(*req.Status) {
				return badRequest("Invalid status")
			}
			completed = *req.Status == models.TestCompleted && test.Status != models.TestCompleted
			test.Status = *req.Status
		}
		if req.Result != nil {
			test.Result = req.Result
		}
		if req.Date != nil {
			if !utils.ValidDate(*req.Date) {
				return badRequest("Invalid date format, expected YYYY-MM-DD")
			}
			test.Date = *req.Date
		}
		if req.Notes != nil {
			test.Notes = req.Notes
		}
		test.UpdateTime = utils.Now()
		return tx.Save(&test).Error
	})
	if err != nil {
		respondError(c, "Failed to update test", err)
		return
	}

	if completed {
		events.Emit(c.Request.Context(), events.TestCompleted, test)
	}
	c.JSON(http.StatusOK, test)
}

func DeleteTest(c *gin.Context) {
	var test models.LabTest
	if err := loadLive(database.DB, &test, c.Param("id"), "Test"); err != nil {
		respondError(c, "Database error fetching test", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RoleDoctor && test.DoctorID != uid {
		respondMessage(c, http.StatusForbidden, "Only the ordering doctor can delete this test")
		return
	}
	test.IsDeleted = true
	test.UpdateTime = utils.Now()
	if err := database.DB.Save(&test).Error; err != nil {
		respondServerError(c, "Failed to delete test", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test deleted successfully"})
}
