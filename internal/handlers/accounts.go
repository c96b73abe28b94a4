package handlers

import (
	"errors"
	"net/http"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountFields are the login and contact fields every create request carries.
type AccountFields struct {
	Name     string  `json:"name" binding:"required"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Phone    *string `json:"phone"`
}

// AccountUpdate changes only the fields that are present.
type AccountUpdate struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// newAccount validates and hashes a create request.
func newAccount(tx *gorm.DB, f AccountFields) (models.Account, error) {
	username := normalizeUsername(f.Username)
	if username == "" {
		return models.Account{}, badRequest("Username is required")
	}
	taken, err := database.UsernameTaken(tx, username, "")
	if err != nil {
		return models.Account{}, err
	}
	if taken {
		return models.Account{}, errUsernameTaken
	}
	hash, err := utils.HashPassword(f.Password)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return models.Account{}, badRequest("Password must be at least 6 characters")
		}
		return models.Account{}, err
	}
	return models.Account{
		Name:     strings.TrimSpace(f.Name),
		Username: username,
		Password: hash,
		Email:    strings.TrimSpace(f.Email),
		Phone:    f.Phone,
	}, nil
}

// applyAccount copies the present fields of u onto acc.
func applyAccount(tx *gorm.DB, acc *models.Account, ownerID string, u AccountUpdate) error {
	if u.Name != nil {
		acc.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		acc.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		acc.Phone = u.Phone
	}
	if u.Username != nil {
		username := normalizeUsername(*u.Username)
		if username == "" {
			return badRequest("Username cannot be empty")
		}
		if username != acc.Username {
			taken, err := database.UsernameTaken(tx, username, ownerID)
			if err != nil {
				return err
			}
			if taken {
				return errUsernameTaken
			}
			acc.Username = username
		}
	}
	if u.Password != nil {
		hash, err := utils.HashPassword(*u.Password)
		if err != nil {
			if errors.Is(err, utils.ErrWeakPassword) {
				return badRequest("Password must be at least 6 characters")
			}
			return err
		}
		acc.Password = hash
	}
	return nil
}

// nextID allocates the next prefixed id for model. tx must be a transaction.
func nextID(tx *gorm.DB, model interface{}, prefix string) (string, error) {
	if err := database.LockKey(tx, "id:"+prefix); err != nil {
		return "", err
	}
	return utils.NextID(tx, model, prefix)
}

// requireExists fails with a 404-mapped error unless a live row with id exists.
func requireExists(tx *gorm.DB, model interface{}, id, what string) error {
	var n int64
	if err := tx.Model(model).Where("id = ? AND is_deleted = ?", id, false).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound(what)
	}
	return nil
}

// selfOrAdmin lets admins through and otherwise requires the caller to be id.
func selfOrAdmin(c *gin.Context, id string) bool {
	uid, role := middleware.CurrentUser(c)
	if role == models.RoleAdmin || uid == id {
		return true
	}
	respondMessage(c, http.StatusForbidden, "You can only modify your own account")
	return false
}

// loadLive fetches the non-deleted row with id into dest.
func loadLive(tx *gorm.DB, dest interface{}, id, what string) error {
	err := tx.Where("id = ? AND is_deleted = ?", id, false).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}
