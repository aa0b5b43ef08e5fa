// seed-admin creates or resets the bootstrap admin account.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	ADMIN_EMAIL=admin@mairie.mg ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	email := utils.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@mairie.mg"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.Utilisateur
	err = db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.Utilisateur{
			Email:      email,
			MotDePasse: string(hashed),
			Nom:        "Administrateur",
			Role:       models.RoleAdmin,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user %q\n", email)
		return
	}

	if err := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"mot_de_passe":         string(hashed),
		"role":                 models.RoleAdmin,
		"est_bloque":           false,
		"tentatives_connexion": 0,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin user %q\n", email)
}
