package models

import (
	"context"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
)

// Closed lookup set; referenced by Utilisateur.Role.
const (
	RoleAdmin   = 1
	RoleManager = 2
	RoleUser    = 3
)

type Role struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Libelle   string    `gorm:"size:50;not null" json:"libelle" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetRoles(ctx context.Context) ([]*Role, error) {
	db := config.GetDB()
	var results []*Role
	if err := db.WithContext(ctx).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetRole(ctx context.Context, id int) (*Role, error) {
	db := config.GetDB()
	var result Role
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// SeedRoles inserts the closed role set when the table is empty.
func SeedRoles() error {
	db := config.GetDB()
	var count int64
	if err := db.Model(&Role{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	roles := []Role{
		{ID: RoleAdmin, Libelle: "admin"},
		{ID: RoleManager, Libelle: "manager"},
		{ID: RoleUser, Libelle: "user"},
	}
	return db.Create(&roles).Error
}
