package models

import (
	"context"
	"strings"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatutNouveau = 1
	StatutEnCours = 2
	StatutTermine = 3
)

type Signalement struct {
	ID                    int              `gorm:"primary_key" json:"id"`
	Titre                 string           `gorm:"size:255;not null" json:"titre" binding:"required"`
	Description           *string          `gorm:"type:text" json:"description"`
	Latitude              float64          `gorm:"not null" json:"latitude"`
	Longitude             float64          `gorm:"not null" json:"longitude"`
	Statut                int              `gorm:"not null;default:1" json:"statut"`
	SurfaceM2             *decimal.Decimal `gorm:"type:decimal(12,2)" json:"surface_m2"`
	Budget                *decimal.Decimal `gorm:"type:decimal(14,2)" json:"budget"`
	Avancement            int              `gorm:"not null;default:0" json:"avancement"`
	EntrepriseResponsable *string          `gorm:"size:150" json:"entreprise_responsable"`
	UtilisateurID         *int             `gorm:"index" json:"utilisateur_id"`
	SynchroniseFirebase   bool             `gorm:"not null;default:false" json:"synchronise_firebase"`
	DateCreation          time.Time        `gorm:"autoCreateTime" json:"date_creation"`
	UpdatedAt             *time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Histo  []*HistoSignalement `gorm:"foreignKey:SignalementID" json:"histo,omitempty"`
	Photos []*Photo            `gorm:"foreignKey:SignalementID" json:"photos,omitempty"`
}

func (Signalement) TableName() string { return "signalements" }

type NewSignalement struct {
	Titre                 string           `json:"titre" binding:"required"`
	Description           *string          `json:"description"`
	Latitude              float64          `json:"latitude" binding:"required"`
	Longitude             float64          `json:"longitude" binding:"required"`
	SurfaceM2             *decimal.Decimal `json:"surface_m2"`
	Budget                *decimal.Decimal `json:"budget"`
	EntrepriseResponsable *string          `json:"entreprise_responsable"`
	UtilisateurID         *int             `json:"utilisateur_id"`
}

type UpdateSignalementInput struct {
	Titre                 *string          `json:"titre"`
	Description           *string          `json:"description"`
	Statut                *int             `json:"statut"`
	SurfaceM2             *decimal.Decimal `json:"surface_m2"`
	Budget                *decimal.Decimal `json:"budget"`
	Avancement            *int             `json:"avancement"`
	EntrepriseResponsable *string          `json:"entreprise_responsable"`
}

type SignalementFilter struct {
	Statut   *int
	Search   string
	Page     int
	PageSize int
}

type SignalementPage struct {
	Items      []*Signalement `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

func GetSignalements(ctx context.Context, filter *SignalementFilter) (*SignalementPage, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&Signalement{})

	if filter.Statut != nil {
		query = query.Where("statut = ?", *filter.Statut)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("titre LIKE ? OR description LIKE ? OR entreprise_responsable LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var items []*Signalement
	err := query.Order("date_creation desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &SignalementPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func GetSignalement(ctx context.Context, id int) (*Signalement, error) {
	db := config.GetDB()
	var result Signalement
	err := db.WithContext(ctx).
		Preload("Histo", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("date_statut asc, id asc")
		}).
		Preload("Photos").
		First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// CreateSignalement inserts the report and its initial history row in one
// transaction. A report always starts at statut 1.
func CreateSignalement(ctx context.Context, input *NewSignalement) (*Signalement, error) {
	db := config.GetDB()

	result := Signalement{
		Titre:                 strings.TrimSpace(input.Titre),
		Description:           input.Description,
		Latitude:              input.Latitude,
		Longitude:             input.Longitude,
		Statut:                StatutNouveau,
		SurfaceM2:             input.SurfaceM2,
		Budget:                input.Budget,
		EntrepriseResponsable: input.EntrepriseResponsable,
		UtilisateurID:         input.UtilisateurID,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result.EntrepriseResponsable != nil && strings.TrimSpace(*result.EntrepriseResponsable) != "" {
			if _, err := UpsertEntrepriseByNom(tx, *result.EntrepriseResponsable); err != nil {
				return err
			}
		}
		if err := tx.Create(&result).Error; err != nil {
			return err
		}
		return appendHisto(tx, result.ID, result.Statut, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSignalement applies partial updates. A history row is appended only
// when the status actually changes.
func UpdateSignalement(ctx context.Context, id int, input *UpdateSignalementInput) (*Signalement, error) {
	db := config.GetDB()

	var result Signalement
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{}
	if input.Titre != nil {
		updates["titre"] = strings.TrimSpace(*input.Titre)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.SurfaceM2 != nil {
		updates["surface_m2"] = *input.SurfaceM2
	}
	if input.Budget != nil {
		updates["budget"] = *input.Budget
	}
	if input.Avancement != nil {
		avancement := *input.Avancement
		if avancement < 0 || avancement > 100 {
			return nil, utils.ErrorInvalidAvancement
		}
		updates["avancement"] = avancement
	}
	if input.EntrepriseResponsable != nil {
		updates["entreprise_responsable"] = *input.EntrepriseResponsable
	}

	statutChanged := false
	if input.Statut != nil && *input.Statut != result.Statut {
		if *input.Statut < StatutNouveau || *input.Statut > StatutTermine {
			return nil, utils.ErrorInvalidStatut
		}
		updates["statut"] = *input.Statut
		statutChanged = true
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.EntrepriseResponsable != nil && strings.TrimSpace(*input.EntrepriseResponsable) != "" {
			if _, err := UpsertEntrepriseByNom(tx, *input.EntrepriseResponsable); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&result).Updates(updates).Error; err != nil {
				return err
			}
		}
		if statutChanged {
			return appendHisto(tx, result.ID, *input.Statut, time.Now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetSignalement(ctx, id)
}

func DeleteSignalement(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var result Signalement
		if err := tx.First(&result, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if err := tx.Where("signalement_id = ?", id).Delete(&HistoSignalement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("signalement_id = ?", id).Delete(&Photo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&result).Error
	})
}

// MarkSignalementSynced flips the informational synced flag after a push.
func MarkSignalementSynced(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Signalement{}).
		Where("id = ?", id).
		Update("synchronise_firebase", true).Error
}

type SignalementStats struct {
	Statut      int             `json:"statut"`
	Nombre      int64           `json:"nombre"`
	SurfaceM2   decimal.Decimal `json:"surface_m2"`
	BudgetTotal decimal.Decimal `json:"budget_total"`
	Avancement  float64         `json:"avancement_moyen"`
}

// GetSignalementStats aggregates per-status counts, totals and average
// progress for the dashboard and the Excel export.
func GetSignalementStats(ctx context.Context) ([]*SignalementStats, error) {
	db := config.GetDB()
	var results []*SignalementStats
	err := db.WithContext(ctx).Model(&Signalement{}).
		Select("statut, count(*) as nombre, coalesce(sum(surface_m2),0) as surface_m2, coalesce(sum(budget),0) as budget_total, coalesce(avg(avancement),0) as avancement").
		Group("statut").
		Order("statut asc").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
