package handlers

import (
	"net/http"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateDoctorRequest struct {
	AccountFields
	Specialization string  `json:"specialization" binding:"required"`
	Qualification  *string `json:"qualification"`
}

type UpdateDoctorRequest struct {
	AccountUpdate
	Specialization *string `json:"specialization"`
	Qualification  *string `json:"qualification"`
}

func ListDoctors(c *gin.Context) {
	query := database.DB.Where("is_deleted = ?", false)
	if s := c.Query("specialization"); s != "" {
		query = query.Where("specialization = ?", s)
	}
	var doctors []models.Doctor
	if err := query.Order("id asc").Find(&doctors).Error; err != nil {
		respondServerError(c, "Database error fetching doctors", err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func GetDoctor(c *gin.Context) {
	var doctor models.Doctor
	if err := loadLive(database.DB, &doctor, c.Param("id"), "Doctor"); err != nil {
		respondError(c, "Database error fetching doctor", err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var doctor models.Doctor
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.LockKey(tx, "accounts"); err != nil {
			return err
		}
		acc, err := newAccount(tx, req.AccountFields)
		if err != nil {
			return err
		}
		id, err := nextID(tx, &models.Doctor{}, models.RoleDoctor.IDPrefix())
		if err != nil {
			return err
		}
		now := utils.Now()
		doctor = models.Doctor{
			ID:             id,
			Account:        acc,
			Specialization: strings.TrimSpace(req.Specialization),
			Qualification:  req.Qualification,
			CreateTime:     now,
			UpdateTime:     now,
		}
		return tx.Create(&doctor).Error
	})
	if err != nil {
		respondError(c, "Failed to create doctor", err)
		return
	}
	c.JSON(http.StatusCreated, doctor)
}

// UpdateDoctor is open to the admin and to the doctor editing their own profile.
func UpdateDoctor(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var doctor models.Doctor
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &doctor, id, "Doctor"); err != nil {
			return err
		}
		if err := applyAccount(tx, &doctor.Account, doctor.ID, req.AccountUpdate); err != nil {
			return err
		}
		if req.Specialization != nil {
			if strings.TrimSpace(*req.Specialization) == "" {
				return badRequest("Specialization cannot be empty")
			}
			doctor.Specialization = strings.TrimSpace(*req.Specialization)
		}
		if req.Qualification != nil {
			doctor.Qualification = req.Qualification
		}
		doctor.UpdateTime = utils.Now()
		return tx.Save(&doctor).Error
	})
	if err != nil {
		respondError(c, "Failed to update doctor", err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func DeleteDoctor(c *gin.Context) {
	var doctor models.Doctor
	if err := loadLive(database.DB, &doctor, c.Param("id"), "Doctor"); err != nil {
		respondError(c, "Database error fetching doctor", err)
		return
	}
	doctor.IsDeleted = true
	doctor.UpdateTime = utils.Now()
	if err := database.DB.Save(&doctor).Error; err != nil {
		respondServerError(c, "Failed to delete doctor", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted successfully"})
}
