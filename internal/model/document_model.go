package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename       string         `gorm:"type:varchar(255);not null"`
	DocumentType   string         `gorm:"type:varchar(50);index"` // pdf, docx, csv, bc3, txt
	Category       string         `gorm:"type:varchar(100);index"`
	GeographicZone string         `gorm:"type:varchar(100);index"`
	PriceYear      int            `gorm:"index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
