package database

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/models"
	"github.com/rotaiq/rotaiq/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Region{},
		&models.Branch{},
		&models.User{},
		&models.Invitation{},
		&models.Shift{},
		&models.ShiftClaim{},
	)
}

// SeedData provisions the initial head office account when the instance has no
// head office users yet. Credentials come from ROTAIQ_ADMIN_EMAIL and
// ROTAIQ_ADMIN_PASSWORD; without them seeding is a no-op.
func SeedData(db *gorm.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ROTAIQ_ADMIN_EMAIL")))
	password := os.Getenv("ROTAIQ_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleHeadOffice).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    email,
		Password: hashed,
		Role:     models.RoleHeadOffice,
		IsStaff:  true,
		IsActive: true,
	}
	return db.Where(models.User{Email: email}).Attrs(admin).FirstOrCreate(&models.User{}).Error
}
