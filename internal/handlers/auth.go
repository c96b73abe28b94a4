package handlers

import (
	"errors"
	"net/http"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// RegisterRequest covers every role; role specific fields are checked by Register.
type RegisterRequest struct {
	AccountFields
	Specialization string  `json:"specialization"`
	Qualification  *string `json:"qualification"`
	Age            *int    `json:"age" binding:"omitempty,min=0,max=150"`
	Gender         *string `json:"gender"`
	Address        *string `json:"address"`
	BloodGroup     *string `json:"blood_group"`
	LabSection     *string `json:"lab_section"`
}

// loadVerified fetches a live verified account by username.
func loadVerified(role models.Role, username string) (id string, acc models.Account, user interface{}, err error) {
	q := database.DB.Where("username = ? AND is_deleted = ?", username, false)
	switch role {
	case models.RoleDoctor:
		var d models.Doctor
		err = q.First(&d).Error
		return d.ID, d.Account, &d, err
	case models.RolePatient:
		var p models.Patient
		err = q.First(&p).Error
		return p.ID, p.Account, &p, err
	case models.RoleReceptionist:
		var r models.Receptionist
		err = q.First(&r).Error
		return r.ID, r.Account, &r, err
	case models.RoleLabTechnician:
		var l models.LabTechnician
		err = q.First(&l).Error
		return l.ID, l.Account, &l, err
	}
	return "", models.Account{}, nil, gorm.ErrRecordNotFound
}

// pendingPasswordMatches reports whether username is awaiting verification
// under role with the given password.
func pendingPasswordMatches(role models.Role, username, password string) bool {
	model := newPendingModel(role)
	if model == nil {
		return false
	}
	var acc models.Account
	err := database.DB.Model(model).Select("password").Where("username = ?", username).Take(&acc).Error
	return err == nil && utils.CheckPassword(password, acc.Password)
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Invalid role")
		return
	}
	username := normalizeUsername(req.Username)

	id, acc, user, err := loadVerified(role, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondServerError(c, "Database error during login", err)
			return
		}
		if pendingPasswordMatches(role, username, req.Password) {
			respondMessage(c, http.StatusForbidden, "Account is awaiting admin verification")
			return
		}
		respondMessage(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !utils.CheckPassword(req.Password, acc.Password) {
		respondMessage(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := tokens.IssueToken(id, role)
	if err != nil {
		respondServerError(c, "Failed to issue token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"role":    role,
		"user":    user,
	})
}

// Register stores a pending account for administrator verification.
func Register(c *gin.Context) {
	role, ok := models.ParseRole(c.Param("role"))
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Invalid role")
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if role == models.RoleDoctor && strings.TrimSpace(req.Specialization) == "" {
		respondMessage(c, http.StatusBadRequest, "Specialization is required for doctors")
		return
	}

	var pendingID uint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.LockKey(tx, "accounts"); err != nil {
			return err
		}
		acc, err := newAccount(tx, req.AccountFields)
		if err != nil {
			return err
		}
		now := utils.Now()
		switch role {
		case models.RoleDoctor:
			p := models.PendingDoctor{Account: acc, Specialization: strings.TrimSpace(req.Specialization), Qualification: req.Qualification, CreateTime: now}
			err = tx.Create(&p).Error
			pendingID = p.ID
		case models.RolePatient:
			p := models.PendingPatient{Account: acc, Age: req.Age, Gender: req.Gender, Address: req.Address, BloodGroup: req.BloodGroup, CreateTime: now}
			err = tx.Create(&p).Error
			pendingID = p.ID
		case models.RoleReceptionist:
			p := models.PendingReceptionist{Account: acc, CreateTime: now}
			err = tx.Create(&p).Error
			pendingID = p.ID
		case models.RoleLabTechnician:
			p := models.PendingLabTechnician{Account: acc, LabSection: req.LabSection, CreateTime: now}
			err = tx.Create(&p).Error
			pendingID = p.ID
		}
		return err
	})
	if err != nil {
		respondError(c, "Registration failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Registration submitted and awaiting admin verification",
		"pending_id": pendingID,
		"role":       role,
	})
}
