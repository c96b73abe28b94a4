package handlers

import (
	_ "embed"
	"errors"
	"net/http"
	"strconv"

	"clinic-backend/internal/database"
	"clinic-backend/internal/events"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

//go:embed assets/admin.html
var adminPage []byte

func newPendingModel(role models.Role) interface{} {
	switch role {
	case models.RoleDoctor:
		return &models.PendingDoctor{}
	case models.RolePatient:
		return &models.PendingPatient{}
	case models.RoleReceptionist:
		return &models.PendingReceptionist{}
	case models.RoleLabTechnician:
		return &models.PendingLabTechnician{}
	}
	return nil
}

func newPendingList(role models.Role) interface{} {
	switch role {
	case models.RoleDoctor:
		return &[]models.PendingDoctor{}
	case models.RolePatient:
		return &[]models.PendingPatient{}
	case models.RoleReceptionist:
		return &[]models.PendingReceptionist{}
	case models.RoleLabTechnician:
		return &[]models.PendingLabTechnician{}
	}
	return nil
}

func pendingParams(c *gin.Context) (models.Role, uint, bool) {
	role, ok := models.ParseRole(c.Param("role"))
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Invalid role")
		return "", 0, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid pending ID format")
		return "", 0, false
	}
	return role, uint(id), true
}

func ListPending(c *gin.Context) {
	role, ok := models.ParseRole(c.Param("role"))
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Invalid role")
		return
	}
	list := newPendingList(role)
	if err := database.DB.Order("id asc").Find(list).Error; err != nil {
		respondServerError(c, "Database error fetching pending registrations", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// promote moves a pending row into its verified table under a fresh id.
// The pending row is deleted first so its username does not count as taken.
func promote(tx *gorm.DB, pending interface{}, verified interface{}, id *string, acc models.Account, role models.Role) error {
	if err := database.LockKey(tx, "accounts"); err != nil {
		return err
	}
	if err := tx.Delete(pending).Error; err != nil {
		return err
	}
	taken, err := database.UsernameTaken(tx, acc.Username, "")
	if err != nil {
		return err
	}
	if taken {
		return errUsernameTaken
	}
	newID, err := nextID(tx, verified, role.IDPrefix())
	if err != nil {
		return err
	}
	*id = newID
	return tx.Create(verified).Error
}

func firstPending(tx *gorm.DB, dest interface{}, id uint) error {
	err := tx.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Pending registration")
	}
	return err
}

func verifyPending(tx *gorm.DB, role models.Role, pendingID uint) (string, interface{}, error) {
	now := utils.Now()
	switch role {
	case models.RoleDoctor:
		var p models.PendingDoctor
		if err := firstPending(tx, &p, pendingID); err != nil {
			return "", nil, err
		}
		d := models.Doctor{Account: p.Account, Specialization: p.Specialization, Qualification: p.Qualification, CreateTime: now, UpdateTime: now}
		err := promote(tx, &p, &d, &d.ID, p.Account, role)
		return d.ID, &d, err
	case models.RolePatient:
		var p models.PendingPatient
		if err := firstPending(tx, &p, pendingID); err != nil {
			return "", nil, err
		}
		pt := models.Patient{Account: p.Account, Age: p.Age, Gender: p.Gender, Address: p.Address, BloodGroup: p.BloodGroup, CreateTime: now, UpdateTime: now}
		err := promote(tx, &p, &pt, &pt.ID, p.Account, role)
		return pt.ID, &pt, err
	case models.RoleReceptionist:
		var p models.PendingReceptionist
		if err := firstPending(tx, &p, pendingID); err != nil {
			return "", nil, err
		}
		r := models.Receptionist{Account: p.Account, CreateTime: now, UpdateTime: now}
		err := promote(tx, &p, &r, &r.ID, p.Account, role)
		return r.ID, &r, err
	case models.RoleLabTechnician:
		var p models.PendingLabTechnician
		if err := firstPending(tx, &p, pendingID); err != nil {
			return "", nil, err
		}
		l := models.LabTechnician{Account: p.Account, LabSection: p.LabSection, CreateTime: now, UpdateTime: now}
		err := promote(tx, &p, &l, &l.ID, p.Account, role)
		return l.ID, &l, err
	}
	return "", nil, badRequest("Invalid role")
}

func VerifyPending(c *gin.Context) {
	role, pendingID, ok := pendingParams(c)
	if !ok {
		return
	}

	var newID string
	var user interface{}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		newID, user, err = verifyPending(tx, role, pendingID)
		return err
	})
	if err != nil {
		respondError(c, "Failed to verify registration", err)
		return
	}

	events.Emit(c.Request.Context(), events.RegistrationVerified, gin.H{"id": newID, "role": role})
	c.JSON(http.StatusOK, gin.H{"message": "Registration verified", "id": newID, "user": user})
}

func RejectPending(c *gin.Context) {
	role, pendingID, ok := pendingParams(c)
	if !ok {
		return
	}
	res := database.DB.Delete(newPendingModel(role), pendingID)
	if res.Error != nil {
		respondServerError(c, "Failed to reject registration", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondMessage(c, http.StatusNotFound, "Pending registration not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registration rejected"})
}

// AdminPage serves the admin console when the key query parameter matches.
func AdminPage(c *gin.Context) {
	if !tokens.IsAdminKey(c.Query("key")) {
		c.Data(http.StatusUnauthorized, "text/plain; charset=utf-8", []byte("Unauthorized"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", adminPage)
}
