package models

import (
	"log"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Role{}, &Utilisateur{}, &TentativeConnexion{},
		&Entreprise{},
		&Signalement{}, &HistoSignalement{}, &Photo{},
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := SeedRoles(); err != nil {
		log.Fatal(err)
	}
}
