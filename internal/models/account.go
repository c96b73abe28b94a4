package models

// Account carries the login and contact fields shared by every user table.
// It is embedded, so its columns are flattened into the owning table.
type Account struct {
	Name     string  `json:"name"`
	Username string  `json:"username" gorm:"size:64;index"`
	Password string  `json:"-"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
}
