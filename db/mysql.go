package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

// MysqlDB is an IDB on top of the config table.
type MysqlDB struct {
	db *gorm.DB
}

func NewMysqlDB(cfg config.Database) (*MysqlDB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	return NewMysqlDBWithGorm(db), nil
}

func NewMysqlDBWithGorm(db *gorm.DB) *MysqlDB {
	return &MysqlDB{db: db}
}

func (db *MysqlDB) Put(key []byte, value []byte) error {
	return Set(db.db, string(key), string(value))
}

func (db *MysqlDB) Delete(key []byte) error {
	return db.db.Where("name = ?", string(key)).Delete(&ConfigTable{}).Error
}

func (db *MysqlDB) Has(key []byte) (bool, error) {
	var count int64
	err := db.db.Model(&ConfigTable{}).Where("name = ?", string(key)).Count(&count).Error
	return count > 0, err
}

func (db *MysqlDB) Get(key []byte) ([]byte, error) {
	val, err := Get(db.db, string(key))
	if err != nil {
		return nil, err
	}

	return []byte(val), nil
}

func (db *MysqlDB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
