package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document metadata filters. All specifications are conjunctive: every
// applied spec narrows the candidate set.

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunks.document_id = ?", s.DocumentID)
}

type ByDocumentType struct {
	DocumentType string
}

func (s ByDocumentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.document_type = ?", s.DocumentType)
}

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.category = ?", s.Category)
}

type ByGeographicZone struct {
	GeographicZone string
}

func (s ByGeographicZone) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.geographic_zone = ?", s.GeographicZone)
}

type ByPriceYear struct {
	PriceYear int
}

func (s ByPriceYear) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.price_year = ?", s.PriceYear)
}
