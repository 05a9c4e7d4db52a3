package infrastructures

import (
	"os"

	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase() *gorm.DB {
	db, err := gorm.Open(postgres.Open(os.Getenv("DATABASE_URL")), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.Voucher{}, &models.Claim{}, &models.AuditLog{}); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}

	return db
}
