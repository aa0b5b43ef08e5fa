package firesync

import (
	"context"
	"errors"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"gorm.io/gorm"
)

// Store is the slice of local persistence the sync engine needs. The gorm
// implementation below is the production one; tests substitute an in-memory
// fake.
type Store interface {
	ListUtilisateurs(ctx context.Context) ([]models.Utilisateur, error)
	ListSignalements(ctx context.Context) ([]models.Signalement, error)
	ListEntreprises(ctx context.Context) ([]models.Entreprise, error)
	ListRoles(ctx context.Context) ([]models.Role, error)

	MarkUtilisateurSynced(ctx context.Context, id int, docID string) error
	MarkSignalementSynced(ctx context.Context, id int) error

	FindUtilisateurByEmail(ctx context.Context, email string) (*models.Utilisateur, error)
	SaveUtilisateur(ctx context.Context, user *models.Utilisateur) error
	UpsertSignalement(ctx context.Context, signalement *models.Signalement, histo []models.HistoSignalement) error
	UpsertEntreprise(ctx context.Context, id int, nom string) error
	UpsertRole(ctx context.Context, id int, libelle string) error

	// Transaction runs fn against a transactional view of the store. An
	// error from fn rolls every local mutation back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore() Store {
	return &gormStore{db: config.GetDB()}
}

func (s *gormStore) ListUtilisateurs(ctx context.Context) ([]models.Utilisateur, error) {
	var results []models.Utilisateur
	err := s.db.WithContext(ctx).Find(&results).Error
	return results, err
}

func (s *gormStore) ListSignalements(ctx context.Context) ([]models.Signalement, error) {
	var results []models.Signalement
	err := s.db.WithContext(ctx).
		Preload("Histo", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("date_statut asc, id asc")
		}).
		Find(&results).Error
	return results, err
}

func (s *gormStore) ListEntreprises(ctx context.Context) ([]models.Entreprise, error) {
	var results []models.Entreprise
	err := s.db.WithContext(ctx).Find(&results).Error
	return results, err
}

func (s *gormStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	var results []models.Role
	err := s.db.WithContext(ctx).Find(&results).Error
	return results, err
}

func (s *gormStore) MarkUtilisateurSynced(ctx context.Context, id int, docID string) error {
	return s.db.WithContext(ctx).Model(&models.Utilisateur{}).
		Where("id = ?", id).
		Update("firebase_uid", docID).Error
}

func (s *gormStore) MarkSignalementSynced(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Model(&models.Signalement{}).
		Where("id = ?", id).
		Update("synchronise_firebase", true).Error
}

func (s *gormStore) FindUtilisateurByEmail(ctx context.Context, email string) (*models.Utilisateur, error) {
	var user models.Utilisateur
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) SaveUtilisateur(ctx context.Context, user *models.Utilisateur) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *gormStore) UpsertSignalement(ctx context.Context, signalement *models.Signalement, histo []models.HistoSignalement) error {
	db := s.db.WithContext(ctx)

	var existing models.Signalement
	err := db.First(&existing, signalement.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(signalement).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"titre":                  signalement.Titre,
			"description":            signalement.Description,
			"latitude":               signalement.Latitude,
			"longitude":              signalement.Longitude,
			"statut":                 signalement.Statut,
			"surface_m2":             signalement.SurfaceM2,
			"budget":                 signalement.Budget,
			"avancement":             signalement.Avancement,
			"entreprise_responsable": signalement.EntrepriseResponsable,
			"utilisateur_id":         signalement.UtilisateurID,
			"synchronise_firebase":   true,
		}).Error; err != nil {
			return err
		}
	}

	// history is append-only: replay only rows we do not already have
	for _, entry := range histo {
		exists, err := models.HistoExists(db, signalement.ID, entry.Statut, entry.DateStatut)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		row := models.HistoSignalement{
			SignalementID: signalement.ID,
			Statut:        entry.Statut,
			DateStatut:    entry.DateStatut,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *gormStore) UpsertEntreprise(ctx context.Context, id int, nom string) error {
	db := s.db.WithContext(ctx)
	var existing models.Entreprise
	err := db.First(&existing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.Entreprise{ID: id, Nom: nom}).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&existing).Update("nom", nom).Error
}

func (s *gormStore) UpsertRole(ctx context.Context, id int, libelle string) error {
	db := s.db.WithContext(ctx)
	var existing models.Role
	err := db.First(&existing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.Role{ID: id, Libelle: libelle}).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&existing).Update("libelle", libelle).Error
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
