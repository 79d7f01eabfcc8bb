package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chunk struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Content      string         `gorm:"type:text"`
	MetadataJson datatypes.JSON `gorm:"type:jsonb"`
	SourcePage   *int
	SourceRow    *int
	ChunkIndex   int            `gorm:"default:0"` // 0-based index for ordering
	HasEmbedding bool           `gorm:"default:false;index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Chunk) TableName() string {
	return "chunks"
}
