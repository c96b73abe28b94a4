package handlers

import (
	"net/http"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateReportRequest struct {
	PatientID       string  `json:"patient_id" binding:"required"`
	DoctorID        string  `json:"doctor_id"`
	TestID          *string `json:"test_id"`
	LabTechnicianID *string `json:"lab_technician_id"`
	Title           string  `json:"title" binding:"required"`
	Findings        string  `json:"findings" binding:"required"`
	Date            string  `json:"date"`
}

type UpdateReportRequest struct {
	Title    *string `json:"title"`
	Findings *string `json:"findings"`
	Date     *string `json:"date"`
}

func ListReports(c *gin.Context) {
	query := database.DB.Where("is_deleted = ?", false)
	for _, col := range []string{"patient_id", "doctor_id", "test_id"} {
		if v := c.Query(col); v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	query = patientScope(c, query, "patient_id")

	var list []models.Report
	if err := query.Order("date desc, id desc").Find(&list).Error; err != nil {
		respondServerError(c, "Database error fetching reports", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func GetReport(c *gin.Context) {
	var r models.Report
	if err := loadLive(database.DB, &r, c.Param("id"), "Report"); err != nil {
		respondError(c, "Database error fetching report", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && r.PatientID != uid {
		respondMessage(c, http.StatusForbidden, "Patients can only view their own reports")
		return
	}
	c.JSON(http.StatusOK, r)
}

// CreateReport accepts reports from doctors and lab technicians. A report
// tied to a test inherits the test's patient check and ordering doctor.
func CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	req.DoctorID = callerDoctorID(c, req.DoctorID)
	if role == models.RoleLabTechnician && req.LabTechnicianID == nil {
		req.LabTechnicianID = &uid
	}
	if req.Date == "" {
		req.Date = utils.Today()
	}
	if !utils.ValidDate(req.Date) {
		respondMessage(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	now := utils.Now()
	report := models.Report{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		TestID:          req.TestID,
		LabTechnicianID: req.LabTechnicianID,
		Title:           strings.TrimSpace(req.Title),
		Findings:        req.Findings,
		Date:            req.Date,
		CreateTime:      now,
		UpdateTime:      now,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Patient{}, report.PatientID, "Patient"); err != nil {
			return err
		}
		if report.TestID != nil {
			var test models.LabTest
			if err := loadLive(tx, &test, *report.TestID, "Test"); err != nil {
				return err
			}
			if test.PatientID != report.PatientID {
				return badRequest("Test belongs to a different patient")
			}
			if report.DoctorID == "" {
				report.DoctorID = test.DoctorID
			}
		}
		if report.DoctorID == "" {
			return badRequest("doctor_id is required")
		}
		if err := requireExists(tx, &models.Doctor{}, report.DoctorID, "Doctor"); err != nil {
			return err
		}
		if report.LabTechnicianID != nil {
			if err := requireExists(tx, &models.LabTechnician{}, *report.LabTechnicianID, "Lab technician"); err != nil {
				return err
			}
		}
		id, err := nextID(tx, &models.Report{}, "RP")
		if err != nil {
			return err
		}
		report.ID = id
		return tx.Create(&report).Error
	})
	if err != nil {
		respondError(c, "Failed to create report", err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// reportOwner limits doctors to their own reports and lab technicians to
// the reports they wrote.
func reportOwner(r models.Report, uid string, role models.Role) error {
	switch role {
	case models.RoleDoctor:
		if r.DoctorID != uid {
			return forbidden("Only the reporting doctor can change this report")
		}
	case models.RoleLabTechnician:
		if r.LabTechnicianID == nil || *r.LabTechnicianID != uid {
			return forbidden("Only the reporting lab technician can change this report")
		}
	}
	return nil
}

func UpdateReport(c *gin.Context) {
	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	uid, role := middleware.CurrentUser(c)

	var report models.Report
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &report, c.Param("id"), "Report"); err != nil {
			return err
		}
		if err := reportOwner(report, uid, role); err != nil {
			return err
		}
		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				return badRequest("Title cannot be empty")
			}
			report.Title = strings.TrimSpace(*req.Title)
		}
		if req.Findings != nil {
			report.Findings = *req.Findings
		}
		if req.Date != nil {
			if !utils.ValidDate(*req.Date) {
				return badRequest("Invalid date format, expected YYYY-MM-DD")
			}
			report.Date = *req.Date
		}
		report.UpdateTime = utils.Now()
		return tx.Save(&report).Error
	})
	if err != nil {
		respondError(c, "Failed to update report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func DeleteReport(c *gin.Context) {
	var report models.Report
	if err := loadLive(database.DB, &report, c.Param("id"), "Report"); err != nil {
		respondError(c, "Database error fetching report", err)
		return
	}
	uid, role := middleware.CurrentUser(c)
	if err := reportOwner(report, uid, role); err != nil {
		respondError(c, "Failed to delete report", err)
		return
	}
	report.IsDeleted = true
	report.UpdateTime = utils.Now()
	if err := database.DB.Save(&report).Error; err != nil {
		respondServerError(c, "Failed to delete report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}
