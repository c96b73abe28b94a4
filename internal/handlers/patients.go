package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- Structs for Request Binding ---

type CreatePatientRequest struct {
	AccountFields
	Age        *int    `json:"age" binding:"omitempty,min=0,max=150"`
	Gender     *string `json:"gender"`
	Address    *string `json:"address"`
	BloodGroup *string `json:"blood_group"`
}

type UpdatePatientRequest struct {
	AccountUpdate
	Age        *int    `json:"age" binding:"omitempty,min=0,max=150"`
	Gender     *string `json:"gender"`
	Address    *string `json:"address"`
	BloodGroup *string `json:"blood_group"`
}

// --- Handler Functions ---

// patientScope restricts a patient caller to their own rows. Other callers
// keep the query unchanged.
func patientScope(c *gin.Context, query *gorm.DB, column string) *gorm.DB {
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient {
		return query.Where(column+" = ?", uid)
	}
	return query
}

// ListPatients returns live patients, optionally only those with
// appointments under doctor_id.
func ListPatients(c *gin.Context) {
	query := database.DB.Where("is_deleted = ?", false)
	if doctorID := c.Query("doctor_id"); doctorID != "" {
		sub := database.DB.Model(&models.Appointment{}).
			Select("patient_id").
			Where("doctor_id = ? AND is_deleted = ?", doctorID, false)
		query = query.Where("id IN (?)", sub)
	}
	var patients []models.Patient
	if err := query.Order("id asc").Find(&patients).Error; err != nil {
		respondServerError(c, "Database error fetching patients", err)
		return
	}
	c.JSON(http.StatusOK, patients)
}

func GetPatient(c *gin.Context) {
	id := c.Param("id")
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && uid != id {
		respondMessage(c, http.StatusForbidden, "Patients can only view their own record")
		return
	}
	var patient models.Patient
	if err := loadLive(database.DB, &patient, id, "Patient"); err != nil {
		respondError(c, "Database error fetching patient", err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var patient models.Patient
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.LockKey(tx, "accounts"); err != nil {
			return err
		}
		acc, err := newAccount(tx, req.AccountFields)
		if err != nil {
			return err
		}
		id, err := nextID(tx, &models.Patient{}, models.RolePatient.IDPrefix())
		if err != nil {
			return err
		}
		now := utils.Now()
		patient = models.Patient{
			ID:         id,
			Account:    acc,
			Age:        req.Age,
			Gender:     req.Gender,
			Address:    req.Address,
			BloodGroup: req.BloodGroup,
			CreateTime: now,
			UpdateTime: now,
		}
		return tx.Create(&patient).Error
	})
	if err != nil {
		respondError(c, "Failed to insert patient", err)
		return
	}
	c.JSON(http.StatusCreated, patient)
}

func UpdatePatient(c *gin.Context) {
	id := c.Param("id")
	uid, role := middleware.CurrentUser(c)
	if role == models.RolePatient && uid != id {
		respondMessage(c, http.StatusForbidden, "You can only modify your own account")
		return
	}
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var patient models.Patient
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &patient, id, "Patient"); err != nil {
			return err
		}
		if err := applyAccount(tx, &patient.Account, patient.ID, req.AccountUpdate); err != nil {
			return err
		}
		if req.Age != nil {
			patient.Age = req.Age
		}
		if req.Gender != nil {
			patient.Gender = req.Gender
		}
		if req.Address != nil {
			patient.Address = req.Address
		}
		if req.BloodGroup != nil {
			patient.BloodGroup = req.BloodGroup
		}
		patient.UpdateTime = utils.Now()
		return tx.Save(&patient).Error
	})
	if err != nil {
		respondError(c, "Failed to update patient", err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func DeletePatient(c *gin.Context) {
	var patient models.Patient
	if err := loadLive(database.DB, &patient, c.Param("id"), "Patient"); err != nil {
		respondError(c, "Database error finding patient for deletion", err)
		return
	}
	patient.IsDeleted = true
	patient.UpdateTime = utils.Now()
	if err := database.DB.Save(&patient).Error; err != nil {
		respondServerError(c, "Failed to delete patient", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

func GetPatientsWithPage(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "10")
	sortBy := c.DefaultQuery("sort_by", "id")
	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", "asc"))
	search := strings.TrimSpace(c.Query("search"))

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := database.DB.Model(&models.Patient{}).Where("is_deleted = ?", false)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR username LIKE ? OR id = ?)", like, like, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondServerError(c, "Error counting patients", err)
		return
	}

	// Only whitelisted columns reach ORDER BY.
	allowedSortFields := map[string]string{
		"id":          "id",
		"name":        "name",
		"username":    "username",
		"age":         "age",
		"gender":      "gender",
		"createtime":  "create_time",
		"create_time": "create_time",
		"updatetime":  "update_time",
		"update_time": "update_time",
	}
	dbSortField, isValidSortField := allowedSortFields[strings.ToLower(sortBy)]
	if !isValidSortField {
		dbSortField = "id"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}
	query = query.Order(dbSortField + " " + sortOrder)

	offset := (page - 1) * pageSize
	var patients []models.Patient
	if err := query.Offset(offset).Limit(pageSize).Find(&patients).Error; err != nil {
		respondServerError(c, "Error fetching paginated patients", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"patients":  patients,
	})
}
