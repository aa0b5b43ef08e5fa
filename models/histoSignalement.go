package models

import (
	"context"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"gorm.io/gorm"
)

// HistoSignalement is append-only. Rows are written at report creation and on
// every status transition, never updated or deleted.
type HistoSignalement struct {
	ID            int       `gorm:"primary_key" json:"id"`
	SignalementID int       `gorm:"not null;index" json:"signalement_id"`
	Statut        int       `gorm:"not null" json:"statut"`
	DateStatut    time.Time `gorm:"autoCreateTime" json:"date_statut"`
}

func (HistoSignalement) TableName() string { return "histo_signalements" }

func GetHistoSignalement(ctx context.Context, signalementId int) ([]*HistoSignalement, error) {
	db := config.GetDB()
	var results []*HistoSignalement
	err := db.WithContext(ctx).
		Where("signalement_id = ?", signalementId).
		Order("date_statut asc, id asc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func appendHisto(tx *gorm.DB, signalementId int, statut int, at time.Time) error {
	row := HistoSignalement{
		SignalementID: signalementId,
		Statut:        statut,
		DateStatut:    at,
	}
	return tx.Create(&row).Error
}

// HistoExists reports whether a history row with the same status and instant
// already exists for the report. The inbound sync path calls it with its
// transaction handle to replay remote history without duplicating rows.
func HistoExists(db *gorm.DB, signalementId int, statut int, at time.Time) (bool, error) {
	var count int64
	err := db.Model(&HistoSignalement{}).
		Where("signalement_id = ? AND statut = ? AND date_statut = ?", signalementId, statut, at).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
