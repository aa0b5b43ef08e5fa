package models_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
)

func strPtr(s string) *string { return &s }

// Regression: reports carry their company as free text; creating or updating
// a report must keep the entreprises table consistent without duplicating
// rows per report.
func TestCreateSignalement_UpsertsEntrepriseByNom(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()
	setupTestDatabase(t)

	for _, titre := range []string{"nid de poule", "chaussee affaissee"} {
		_, err := models.CreateSignalement(ctx, &models.NewSignalement{
			Titre:                 titre,
			Latitude:              -18.9,
			Longitude:             47.5,
			EntrepriseResponsable: strPtr("Colas Madagascar"),
		})
		if err != nil {
			t.Fatalf("CreateSignalement %q: %v", titre, err)
		}
	}

	var count int64
	err := config.GetDB().Model(&models.Entreprise{}).
		Where("nom = ?", "Colas Madagascar").
		Count(&count).Error
	if err != nil {
		t.Fatalf("count entreprises: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one entreprise row, got %d", count)
	}
}

// Regression: search must also match the responsible company, not just title
// and description.
func TestGetSignalements_SearchMatchesEntreprise(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()
	setupTestDatabase(t)

	withCompany, err := models.CreateSignalement(ctx, &models.NewSignalement{
		Titre:                 "nid de poule",
		Latitude:              -18.9,
		Longitude:             47.5,
		EntrepriseResponsable: strPtr("Colas Madagascar"),
	})
	if err != nil {
		t.Fatalf("CreateSignalement: %v", err)
	}
	if _, err := models.CreateSignalement(ctx, &models.NewSignalement{
		Titre:     "lampadaire casse",
		Latitude:  -18.9,
		Longitude: 47.5,
	}); err != nil {
		t.Fatalf("CreateSignalement: %v", err)
	}

	page, err := models.GetSignalements(ctx, &models.SignalementFilter{Search: "colas"})
	if err != nil {
		t.Fatalf("GetSignalements: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected one match on the company name, got %d", page.Total)
	}
	if page.Items[0].ID != withCompany.ID {
		t.Fatalf("wrong report matched: %d", page.Items[0].ID)
	}
}
