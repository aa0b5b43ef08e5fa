package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"gorm.io/gorm"
)

type Entreprise struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Nom       string    `gorm:"size:150;not null" json:"nom" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Entreprise) TableName() string { return "entreprises" }

type NewEntreprise struct {
	Nom string `json:"nom" binding:"required"`
}

func GetEntreprises(ctx context.Context) ([]*Entreprise, error) {
	db := config.GetDB()
	var results []*Entreprise
	if err := db.WithContext(ctx).Order("nom asc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetEntreprise(ctx context.Context, id int) (*Entreprise, error) {
	db := config.GetDB()
	var result Entreprise
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func CreateEntreprise(ctx context.Context, input *NewEntreprise) (*Entreprise, error) {
	db := config.GetDB()
	result := Entreprise{Nom: strings.TrimSpace(input.Nom)}
	if err := db.WithContext(ctx).Create(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// UpsertEntrepriseByNom finds a company by exact name or creates it, on the
// caller's db handle so it can run inside a transaction. Reports carry their
// company as a free-text name; this keeps the entreprises table consistent
// with those assignments.
func UpsertEntrepriseByNom(db *gorm.DB, nom string) (*Entreprise, error) {
	nom = strings.TrimSpace(nom)
	var result Entreprise
	err := db.Where("nom = ?", nom).Take(&result).Error
	if err == nil {
		return &result, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	result = Entreprise{Nom: nom}
	if err := db.Create(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
