package models

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
)

type TentativeConnexion struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Email        string    `gorm:"size:255" json:"email"`
	AdresseIP    string    `gorm:"size:45;index" json:"adresse_ip"`
	Reussie      bool      `gorm:"not null;default:false" json:"reussie"`
	DateTentative time.Time `gorm:"autoCreateTime;index" json:"date_tentative"`
}

func (TentativeConnexion) TableName() string { return "tentatives_connexion" }

func ipMaxAttempts() int {
	if v, err := strconv.Atoi(os.Getenv("AUTH_IP_MAX_ATTEMPTS")); err == nil && v > 0 {
		return v
	}
	return 10
}

func ipWindow() time.Duration {
	minutes := 15
	if v, err := strconv.Atoi(os.Getenv("AUTH_IP_WINDOW_MINUTES")); err == nil && v > 0 {
		minutes = v
	}
	return time.Duration(minutes) * time.Minute
}

func RecordTentative(ctx context.Context, email string, ip string, reussie bool) error {
	db := config.GetDB()
	row := TentativeConnexion{
		Email:     utils.NormalizeEmail(email),
		AdresseIP: ip,
		Reussie:   reussie,
	}
	return db.WithContext(ctx).Create(&row).Error
}

// IPBlocked reports whether the IP accumulated too many failed attempts
// inside the sliding window.
func IPBlocked(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	db := config.GetDB()
	since := time.Now().Add(-ipWindow())
	var count int64
	err := db.WithContext(ctx).Model(&TentativeConnexion{}).
		Where("adresse_ip = ? AND reussie = ? AND date_tentative > ?", ip, false, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count >= int64(ipMaxAttempts()), nil
}

// ResetTentativesIP clears failed attempts for an IP after a successful login.
func ResetTentativesIP(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).
		Where("adresse_ip = ? AND reussie = ?", ip, false).
		Delete(&TentativeConnexion{}).Error
}

// PurgeOldTentatives removes attempt rows older than the retention window.
func PurgeOldTentatives(ctx context.Context, retention time.Duration) (int64, error) {
	db := config.GetDB()
	cutoff := time.Now().Add(-retention)
	result := db.WithContext(ctx).
		Where("date_tentative < ?", cutoff).
		Delete(&TentativeConnexion{})
	return result.RowsAffected, result.Error
}
