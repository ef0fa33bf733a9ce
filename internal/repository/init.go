package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/storelift/domainstack/config"
	"github.com/storelift/domainstack/internal/models"
)

type Repositories struct {
	DomainRepository              DomainRepository
	VerificationAttemptRepository VerificationAttemptRepository
}

func InitRepositories(domainstackDB *gorm.DB) *Repositories {
	return &Repositories{
		DomainRepository:              NewDomainRepository(domainstackDB),
		VerificationAttemptRepository: NewVerificationAttemptRepository(domainstackDB),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, domainstackDB *gorm.DB) error {
	db, err := domainstackDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = domainstackDB.AutoMigrate(
		&models.Domain{},
		&models.VerificationAttempt{},
	)

	db.Close()

	db, _ = domainstackDB.DB()
	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
