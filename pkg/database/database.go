package database

import (
	"fmt"
	"log"
	"sat_prep_backend/internal/config"
	"sat_prep_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ShouldAutoMigrate release 模式下默认不自动迁移，需要用 -migrate 显式开启
func ShouldAutoMigrate(mode string, force bool) bool {
	return mode != "release" || force
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := &cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
		dbCfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if ShouldAutoMigrate(cfg.Server.Mode, cfg.ForceMigrate) {
		err = db.AutoMigrate(
			&model.User{},
			&model.Test{},
			&model.TestQuestion{},
			&model.TestAttempt{},
		)
		if err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}
