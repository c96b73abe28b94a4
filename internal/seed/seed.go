// Package seed loads verified staff and patient accounts from a YAML file,
// so a fresh database has someone to log in as.
package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Account struct {
	Name     string  `yaml:"name"`
	Username string  `yaml:"username"`
	Password string  `yaml:"password"`
	Email    string  `yaml:"email"`
	Phone    *string `yaml:"phone"`
}

type Doctor struct {
	Account        `yaml:",inline"`
	Specialization string  `yaml:"specialization"`
	Qualification  *string `yaml:"qualification"`
}

type Patient struct {
	Account    `yaml:",inline"`
	Age        *int    `yaml:"age"`
	Gender     *string `yaml:"gender"`
	Address    *string `yaml:"address"`
	BloodGroup *string `yaml:"blood_group"`
}

type LabTechnician struct {
	Account    `yaml:",inline"`
	LabSection *string `yaml:"lab_section"`
}

// File is the layout of a seed document.
type File struct {
	Doctors        []Doctor        `yaml:"doctors"`
	Receptionists  []Account       `yaml:"receptionists"`
	LabTechnicians []LabTechnician `yaml:"lab_technicians"`
	Patients       []Patient       `yaml:"patients"`
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(content)
}

// Parse decodes a seed document.
func Parse(content []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Doctors)+len(f.Receptionists)+len(f.LabTechnicians)+len(f.Patients) == 0 {
		return nil, fmt.Errorf("seed file has no accounts")
	}
	return &f, nil
}

// Result counts what Apply did.
type Result struct {
	Created int
	Skipped int
}

// Apply inserts every account whose username is not already taken by any
// verified or pending account. It runs in one transaction.
func Apply(db *gorm.DB, f *File) (Result, error) {
	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		now := utils.Now()

		for _, d := range f.Doctors {
			acc, ok, err := prepare(tx, d.Account)
			if err != nil {
				return err
			}
			if !ok {
				res.Skipped++
				continue
			}
			id, err := utils.NextID(tx, &models.Doctor{}, models.RoleDoctor.IDPrefix())
			if err != nil {
				return err
			}
			row := models.Doctor{ID: id, Account: acc, Specialization: d.Specialization,
				Qualification: d.Qualification, CreateTime: now, UpdateTime: now}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed doctor %s: %w", acc.Username, err)
			}
			res.Created++
		}

		for _, r := range f.Receptionists {
			acc, ok, err := prepare(tx, r)
			if err != nil {
				return err
			}
			if !ok {
				res.Skipped++
				continue
			}
			id, err := utils.NextID(tx, &models.Receptionist{}, models.RoleReceptionist.IDPrefix())
			if err != nil {
				return err
			}
			row := models.Receptionist{ID: id, Account: acc, CreateTime: now, UpdateTime: now}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed receptionist %s: %w", acc.Username, err)
			}
			res.Created++
		}

		for _, l := range f.LabTechnicians {
			acc, ok, err := prepare(tx, l.Account)
			if err != nil {
				return err
			}
			if !ok {
				res.Skipped++
				continue
			}
			id, err := utils.NextID(tx, &models.LabTechnician{}, models.RoleLabTechnician.IDPrefix())
			if err != nil {
				return err
			}
			row := models.LabTechnician{ID: id, Account: acc, LabSection: l.LabSection, CreateTime: now, UpdateTime: now}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed lab technician %s: %w", acc.Username, err)
			}
			res.Created++
		}

		for _, p := range f.Patients {
			acc, ok, err := prepare(tx, p.Account)
			if err != nil {
				return err
			}
			if !ok {
				res.Skipped++
				continue
			}
			id, err := utils.NextID(tx, &models.Patient{}, models.RolePatient.IDPrefix())
			if err != nil {
				return err
			}
			row := models.Patient{ID: id, Account: acc, Age: p.Age, Gender: p.Gender,
				Address: p.Address, BloodGroup: p.BloodGroup, CreateTime: now, UpdateTime: now}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed patient %s: %w", acc.Username, err)
			}
			res.Created++
		}
		return nil
	})
	return res, err
}

// prepare hashes the password; ok is false when the username is already
// held by any verified or pending account.
func prepare(tx *gorm.DB, a Account) (models.Account, bool, error) {
	username := strings.ToLower(strings.TrimSpace(a.Username))
	if username == "" || a.Name == "" {
		return models.Account{}, false, fmt.Errorf("seed account needs name and username")
	}
	taken, err := database.UsernameTaken(tx, username, "")
	if err != nil {
		return models.Account{}, false, err
	}
	if taken {
		return models.Account{}, false, nil
	}
	hash, err := utils.HashPassword(a.Password)
	if err != nil {
		return models.Account{}, false, fmt.Errorf("seed account %s: %w", username, err)
	}
	return models.Account{Name: a.Name, Username: username, Password: hash, Email: a.Email, Phone: a.Phone}, true, nil
}
