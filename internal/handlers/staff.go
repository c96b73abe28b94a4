package handlers

import (
	"net/http"

	"clinic-backend/internal/database"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- Receptionists ---

func ListReceptionists(c *gin.Context) {
	var list []models.Receptionist
	if err := database.DB.Where("is_deleted = ?", false).Order("id asc").Find(&list).Error; err != nil {
		respondServerError(c, "Database error fetching receptionists", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func GetReceptionist(c *gin.Context) {
	var r models.Receptionist
	if err := loadLive(database.DB, &r, c.Param("id"), "Receptionist"); err != nil {
		respondError(c, "Database error fetching receptionist", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func CreateReceptionist(c *gin.Context) {
	var req AccountFields
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var r models.Receptionist
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.LockKey(tx, "accounts"); err != nil {
			return err
		}
		acc, err := newAccount(tx, req)
		if err != nil {
			return err
		}
		id, err := nextID(tx, &models.Receptionist{}, models.RoleReceptionist.IDPrefix())
		if err != nil {
			return err
		}
		now := utils.Now()
		r = models.Receptionist{ID: id, Account: acc, CreateTime: now, UpdateTime: now}
		return tx.Create(&r).Error
	})
	if err != nil {
		respondError(c, "Failed to create receptionist", err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func UpdateReceptionist(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	var req AccountUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var r models.Receptionist
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &r, id, "Receptionist"); err != nil {
			return err
		}
		if err := applyAccount(tx, &r.Account, r.ID, req); err != nil {
			return err
		}
		r.UpdateTime = utils.Now()
		return tx.Save(&r).Error
	})
	if err != nil {
		respondError(c, "Failed to update receptionist", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func DeleteReceptionist(c *gin.Context) {
	var r models.Receptionist
	if err := loadLive(database.DB, &r, c.Param("id"), "Receptionist"); err != nil {
		respondError(c, "Database error fetching receptionist", err)
		return
	}
	r.IsDeleted = true
	r.UpdateTime = utils.Now()
	if err := database.DB.Save(&r).Error; err != nil {
		respondServerError(c, "Failed to delete receptionist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receptionist deleted successfully"})
}

// --- Lab technicians ---

type CreateLabTechnicianRequest struct {
	AccountFields
	LabSection *string `json:"lab_section"`
}

type UpdateLabTechnicianRequest struct {
	AccountUpdate
	LabSection *string `json:"lab_section"`
}

func ListLabTechnicians(c *gin.Context) {
	var list []models.LabTechnician
	if err := database.DB.Where("is_deleted = ?", false).Order("id asc").Find(&list).Error; err != nil {
		respondServerError(c, "Database error fetching lab technicians", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func GetLabTechnician(c *gin.Context) {
	var l models.LabTechnician
	if err := loadLive(database.DB, &l, c.Param("id"), "Lab technician"); err != nil {
		respondError(c, "Database error fetching lab technician", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func CreateLabTechnician(c *gin.Context) {
	var req CreateLabTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var l models.LabTechnician
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.LockKey(tx, "accounts"); err != nil {
			return err
		}
		acc, err := newAccount(tx, req.AccountFields)
		if err != nil {
			return err
		}
		id, err := nextID(tx, &models.LabTechnician{}, models.RoleLabTechnician.IDPrefix())
		if err != nil {
			return err
		}
		now := utils.Now()
		l = models.LabTechnician{ID: id, Account: acc, LabSection: req.LabSection, CreateTime: now, UpdateTime: now}
		return tx.Create(&l).Error
	})
	if err != nil {
		respondError(c, "Failed to create lab technician", err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func UpdateLabTechnician(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	var req UpdateLabTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var l models.LabTechnician
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadLive(tx, &l, id, "Lab technician"); err != nil {
			return err
		}
		if err := applyAccount(tx, &l.Account, l.ID, req.AccountUpdate); err != nil {
			return err
		}
		if req.LabSection != nil {
			l.LabSection = req.LabSection
		}
		l.UpdateTime = utils.Now()
		return tx.Save(&l).Error
	})
	if err != nil {
		respondError(c, "Failed to update lab technician", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func DeleteLabTechnician(c *gin.Context) {
	var l models.LabTechnician
	if err := loadLive(database.DB, &l, c.Param("id"), "Lab technician"); err != nil {
		respondError(c, "Database error fetching lab technician", err)
		return
	}
	l.IsDeleted = true
	l.UpdateTime = utils.Now()
	if err := database.DB.Save(&l).Error; err != nil {
		respondServerError(c, "Failed to delete lab technician", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lab technician deleted successfully"})
}
