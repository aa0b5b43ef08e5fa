package firesync

import (
	"testing"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
)

var lookupRoles = []models.Role{
	{ID: 1, Libelle: "admin"},
	{ID: 2, Libelle: "manager"},
	{ID: 3, Libelle: "user"},
}

func TestResolveRoleId(t *testing.T) {
	cases := []struct {
		name     string
		value    firestore.Value
		present  bool
		expected int
	}{
		{"numeric id", firestore.Integer(2), true, 2},
		{"numeric string id", firestore.String("1"), true, 1},
		{"label exact", firestore.String("manager"), true, 2},
		{"label mixed case", firestore.String("  ADMIN "), true, 1},
		{"fallback employee", firestore.String("employee"), true, 3},
		{"fallback utilisateur", firestore.String("Utilisateur"), true, 3},
		{"unknown label", firestore.String("wizard"), true, 3},
		{"unknown numeric id", firestore.Integer(42), true, 3},
		{"absent", firestore.Value{}, false, 3},
	}
	for _, tc := range cases {
		got := ResolveRoleId(lookupRoles, tc.value, tc.present)
		if got != tc.expected {
			t.Fatalf("%s: expected role %d, got %d", tc.name, tc.expected, got)
		}
	}
}

func TestResolveRoleId_NumericIdBeatsLabel(t *testing.T) {
	// a role labelled "2" must not shadow the id lookup
	roles := []models.Role{
		{ID: 1, Libelle: "2"},
		{ID: 2, Libelle: "manager"},
	}
	if got := ResolveRoleId(roles, firestore.Integer(2), true); got != 2 {
		t.Fatalf("numeric id must take precedence, got %d", got)
	}
}

func TestUtilisateurFromDocument_Defaults(t *testing.T) {
	doc := firestore.Document{
		ID: "42",
		Fields: map[string]firestore.Value{
			"Email": firestore.String("X@Y.mg"),
		},
	}
	user := utilisateurFromDocument(doc, lookupRoles)
	if user.Email != "x@y.mg" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("missing role must default to %d, got %d", models.RoleUser, user.Role)
	}
	if user.DateInscription.IsZero() {
		t.Fatal("missing date_inscription must get a default, not zero")
	}
	if user.FirebaseUid == nil || *user.FirebaseUid != "42" {
		t.Fatalf("firebase uid must be the document id, got %v", user.FirebaseUid)
	}
}

func TestUtilisateurFromDocument_AcceptsCamelCaseFields(t *testing.T) {
	// other Firestore clients write estBloque and roleId
	doc := firestore.Document{
		ID: "fb-abc",
		Fields: map[string]firestore.Value{
			"email":     firestore.String("agent@mairie.mg"),
			"estBloque": firestore.Boolean(true),
			"roleId":    firestore.Integer(2),
		},
	}
	user := utilisateurFromDocument(doc, lookupRoles)
	if !user.EstBloque {
		t.Fatal("estBloque was not picked up")
	}
	if user.Role != models.RoleManager {
		t.Fatalf("roleId was not picked up, got role %d", user.Role)
	}
}

func TestSignalementFromDocument_AcceptsHistoriqueEntries(t *testing.T) {
	// other Firestore clients embed history as historique/date_chargement
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := firestore.Document{
		ID: "7",
		Fields: map[string]firestore.Value{
			"titre": firestore.String("egout bouche"),
			"historique": firestore.Array(
				firestore.Map(map[string]firestore.Value{
					"statut":          firestore.Integer(1),
					"date_chargement": firestore.Timestamp(first),
				}),
				firestore.Map(map[string]firestore.Value{
					"statut":          firestore.Integer(2),
					"date_chargement": firestore.Timestamp(first.Add(time.Hour)),
				}),
			),
		},
	}
	_, histo := signalementFromDocument(doc)
	if len(histo) != 2 {
		t.Fatalf("embedded historique entries were dropped: got %d", len(histo))
	}
	if histo[0].Statut != 1 || !histo[0].DateStatut.Equal(first) {
		t.Fatalf("first entry mangled: %+v", histo[0])
	}
	if histo[1].Statut != 2 || !histo[1].DateStatut.Equal(first.Add(time.Hour)) {
		t.Fatalf("second entry mangled: %+v", histo[1])
	}
}

func TestSignalementFromDocument_AcceptsHistoEntries(t *testing.T) {
	// the short spelling stays readable too
	at := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	doc := firestore.Document{
		ID: "8",
		Fields: map[string]firestore.Value{
			"titre": firestore.String("t"),
			"histo": firestore.Array(
				firestore.Map(map[string]firestore.Value{
					"statut":      firestore.Integer(3),
					"date_statut": firestore.Timestamp(at),
				}),
			),
		},
	}
	_, histo := signalementFromDocument(doc)
	if len(histo) != 1 || histo[0].Statut != 3 || !histo[0].DateStatut.Equal(at) {
		t.Fatalf("histo entries were dropped or mangled: %+v", histo)
	}
}

func TestSignalementRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	description := "chaussee deformee"
	company := "Colas"
	owner := 3
	original := &models.Signalement{
		ID:                    12,
		Titre:                 "nid de poule",
		Description:           &description,
		Latitude:              -18.8792,
		Longitude:             47.5079,
		Statut:                models.StatutEnCours,
		Avancement:            40,
		EntrepriseResponsable: &company,
		UtilisateurID:         &owner,
		DateCreation:          created,
		Histo: []*models.HistoSignalement{
			{SignalementID: 12, Statut: 1, DateStatut: created},
			{SignalementID: 12, Statut: 2, DateStatut: created.Add(time.Hour)},
		},
	}

	fields := signalementToRemote(original)
	decoded, histo := signalementFromDocument(firestore.Document{ID: "12", Fields: fields})

	if decoded.ID != 12 || decoded.Titre != original.Titre || decoded.Statut != original.Statut {
		t.Fatalf("base fields lost: %+v", decoded)
	}
	if decoded.Latitude != original.Latitude || decoded.Longitude != original.Longitude {
		t.Fatalf("coordinates lost: %f %f", decoded.Latitude, decoded.Longitude)
	}
	if decoded.Description == nil || *decoded.Description != description {
		t.Fatalf("description lost: %v", decoded.Description)
	}
	if decoded.UtilisateurID == nil || *decoded.UtilisateurID != owner {
		t.Fatalf("owner linkage lost: %v", decoded.UtilisateurID)
	}
	if len(histo) != 2 || histo[0].Statut != 1 || histo[1].Statut != 2 {
		t.Fatalf("history lost: %+v", histo)
	}
	if !histo[1].DateStatut.Equal(created.Add(time.Hour)) {
		t.Fatalf("history timestamp lost: %v", histo[1].DateStatut)
	}
}

func TestSignalementFromDocument_InvalidValuesFallBack(t *testing.T) {
	doc := firestore.Document{
		ID: "bad-id",
		Fields: map[string]firestore.Value{
			"titre":      firestore.String("t"),
			"statut":     firestore.Integer(9),
			"avancement": firestore.Integer(250),
		},
	}
	decoded, _ := signalementFromDocument(doc)
	if decoded.ID != 0 {
		t.Fatalf("non-numeric document id must leave id unset, got %d", decoded.ID)
	}
	if decoded.Statut != models.StatutNouveau {
		t.Fatalf("out-of-range statut must default, got %d", decoded.Statut)
	}
	if decoded.Avancement != 0 {
		t.Fatalf("out-of-range avancement must default, got %d", decoded.Avancement)
	}
}
