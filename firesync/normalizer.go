package firesync

import (
	"strconv"
	"strings"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/shopspring/decimal"
)

// roleFallback maps free-text role labels seen in the wild to role ids. Used
// only after the live role lookup fails to match.
var roleFallback = map[string]int{
	"admin":       models.RoleAdmin,
	"manager":     models.RoleManager,
	"user":        models.RoleUser,
	"utilisateur": models.RoleUser,
	"employee":    models.RoleUser,
}

// fieldAny returns the first of names present on the document. Documents
// written by other clients spell some fields differently (historique vs
// histo, estBloque vs est_bloque, roleId vs role), so readers accept every
// known spelling.
func fieldAny(doc firestore.Document, names ...string) (firestore.Value, bool) {
	for _, name := range names {
		if v, ok := doc.Field(name); ok {
			return v, true
		}
	}
	return firestore.Value{}, false
}

// ResolveRoleId turns whatever a remote document carries as a role into a
// role id. Numeric ids win over labels because they are unambiguous:
// an exact id match against the lookup comes first, then a case-insensitive
// label match, then the fallback table, then the default role.
func ResolveRoleId(roles []models.Role, v firestore.Value, ok bool) int {
	if !ok {
		return models.RoleUser
	}

	if n, isNum := v.AsInt(); isNum && v.Kind != firestore.KindString {
		for _, r := range roles {
			if r.ID == int(n) {
				return r.ID
			}
		}
	}

	if s, isStr := v.AsString(); isStr {
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			for _, r := range roles {
				if r.ID == n {
					return r.ID
				}
			}
		}
		for _, r := range roles {
			if strings.EqualFold(r.Libelle, s) {
				return r.ID
			}
		}
		if id, found := roleFallback[strings.ToLower(s)]; found {
			return id
		}
	}

	return models.RoleUser
}

func utilisateurToRemote(u *models.Utilisateur) map[string]firestore.Value {
	fields := map[string]firestore.Value{
		"email":            firestore.String(u.Email),
		"nom":              firestore.String(u.Nom),
		"role":             firestore.Integer(int64(u.Role)),
		"est_bloque":       firestore.Boolean(u.EstBloque),
		"date_inscription": firestore.Timestamp(u.DateInscription),
	}
	return fields
}

func utilisateurFromDocument(doc firestore.Document, roles []models.Role) *models.Utilisateur {
	user := &models.Utilisateur{Role: models.RoleUser}

	if v, ok := doc.Field("email"); ok {
		if s, isStr := v.AsString(); isStr {
			user.Email = utils.NormalizeEmail(s)
		}
	}
	if v, ok := doc.Field("nom"); ok {
		if s, isStr := v.AsString(); isStr {
			user.Nom = s
		}
	}
	roleValue, roleOk := fieldAny(doc, "role", "roleId")
	user.Role = ResolveRoleId(roles, roleValue, roleOk)
	if v, ok := fieldAny(doc, "est_bloque", "estBloque"); ok {
		if b, isBool := v.AsBool(); isBool {
			user.EstBloque = b
		}
	}
	if v, ok := doc.Field("date_inscription"); ok {
		if t, isTime := v.AsTime(); isTime {
			user.DateInscription = t
		}
	}
	if user.DateInscription.IsZero() {
		user.DateInscription = time.Now()
	}

	uid := doc.ID
	user.FirebaseUid = &uid
	return user
}

func decimalValue(d *decimal.Decimal) firestore.Value {
	if d == nil {
		return firestore.Null()
	}
	return firestore.Double(d.InexactFloat64())
}

func signalementToRemote(s *models.Signalement) map[string]firestore.Value {
	fields := map[string]firestore.Value{
		"titre":         firestore.String(s.Titre),
		"latitude":      firestore.Double(s.Latitude),
		"longitude":     firestore.Double(s.Longitude),
		"statut":        firestore.Integer(int64(s.Statut)),
		"avancement":    firestore.Integer(int64(s.Avancement)),
		"surface_m2":    decimalValue(s.SurfaceM2),
		"budget":        decimalValue(s.Budget),
		"date_creation": firestore.Timestamp(s.DateCreation),
	}
	if s.Description != nil {
		fields["description"] = firestore.String(*s.Description)
	} else {
		fields["description"] = firestore.Null()
	}
	if s.EntrepriseResponsable != nil {
		fields["entreprise_responsable"] = firestore.String(*s.EntrepriseResponsable)
	} else {
		fields["entreprise_responsable"] = firestore.Null()
	}
	if s.UtilisateurID != nil {
		fields["utilisateur_id"] = firestore.Integer(int64(*s.UtilisateurID))
	} else {
		fields["utilisateur_id"] = firestore.Null()
	}

	histo := make([]firestore.Value, 0, len(s.Histo))
	for _, entry := range s.Histo {
		histo = append(histo, firestore.Map(map[string]firestore.Value{
			"statut":          firestore.Integer(int64(entry.Statut)),
			"date_chargement": firestore.Timestamp(entry.DateStatut),
		}))
	}
	fields["historique"] = firestore.Array(histo...)
	return fields
}

func signalementFromDocument(doc firestore.Document) (*models.Signalement, []models.HistoSignalement) {
	signalement := &models.Signalement{
		Statut:              models.StatutNouveau,
		SynchroniseFirebase: true,
	}

	if id, err := strconv.Atoi(doc.ID); err == nil {
		signalement.ID = id
	}
	if v, ok := doc.Field("titre"); ok {
		if s, isStr := v.AsString(); isStr {
			signalement.Titre = s
		}
	}
	if v, ok := doc.Field("description"); ok && v.Kind != firestore.KindNull {
		if s, isStr := v.AsString(); isStr {
			signalement.Description = &s
		}
	}
	if v, ok := doc.Field("latitude"); ok {
		if f, isNum := v.AsFloat(); isNum {
			signalement.Latitude = f
		}
	}
	if v, ok := doc.Field("longitude"); ok {
		if f, isNum := v.AsFloat(); isNum {
			signalement.Longitude = f
		}
	}
	if v, ok := doc.Field("statut"); ok {
		if n, isNum := v.AsInt(); isNum && n >= models.StatutNouveau && n <= models.StatutTermine {
			signalement.Statut = int(n)
		}
	}
	if v, ok := doc.Field("avancement"); ok {
		if n, isNum := v.AsInt(); isNum && n >= 0 && n <= 100 {
			signalement.Avancement = int(n)
		}
	}
	if v, ok := doc.Field("surface_m2"); ok {
		if f, isNum := v.AsFloat(); isNum {
			d := decimal.NewFromFloat(f)
			signalement.SurfaceM2 = &d
		}
	}
	if v, ok := doc.Field("budget"); ok {
		if f, isNum := v.AsFloat(); isNum {
			d := decimal.NewFromFloat(f)
			signalement.Budget = &d
		}
	}
	if v, ok := doc.Field("entreprise_responsable"); ok && v.Kind != firestore.KindNull {
		if s, isStr := v.AsString(); isStr {
			signalement.EntrepriseResponsable = &s
		}
	}
	if v, ok := doc.Field("utilisateur_id"); ok {
		if n, isNum := v.AsInt(); isNum && n > 0 {
			id := int(n)
			signalement.UtilisateurID = &id
		}
	}
	if v, ok := doc.Field("date_creation"); ok {
		if t, isTime := v.AsTime(); isTime {
			signalement.DateCreation = t
		}
	}

	var histo []models.HistoSignalement
	if v, ok := fieldAny(doc, "historique", "histo"); ok && v.Kind == firestore.KindArray {
		for _, item := range v.Arr {
			if item.Kind != firestore.KindMap {
				continue
			}
			entryDoc := firestore.Document{Fields: item.Map}
			entry := models.HistoSignalement{SignalementID: signalement.ID, Statut: models.StatutNouveau}
			if sv, ok := entryDoc.Field("statut"); ok {
				if n, isNum := sv.AsInt(); isNum {
					entry.Statut = int(n)
				}
			}
			if dv, ok := fieldAny(entryDoc, "date_chargement", "date_statut"); ok {
				if t, isTime := dv.AsTime(); isTime {
					entry.DateStatut = t
				}
			}
			if entry.DateStatut.IsZero() {
				entry.DateStatut = time.Now()
			}
			histo = append(histo, entry)
		}
	}
	return signalement, histo
}

func entrepriseToRemote(e *models.Entreprise) map[string]firestore.Value {
	return map[string]firestore.Value{
		"nom": firestore.String(e.Nom),
	}
}

func entrepriseFromDocument(doc firestore.Document) (int, string) {
	id, _ := strconv.Atoi(doc.ID)
	nom := ""
	if v, ok := doc.Field("nom"); ok {
		if s, isStr := v.AsString(); isStr {
			nom = strings.TrimSpace(s)
		}
	}
	return id, nom
}

func roleToRemote(r *models.Role) map[string]firestore.Value {
	return map[string]firestore.Value{
		"libelle": firestore.String(r.Libelle),
	}
}

func roleFromDocument(doc firestore.Document) (int, string) {
	id, _ := strconv.Atoi(doc.ID)
	libelle := ""
	if v, ok := doc.Field("libelle"); ok {
		if s, isStr := v.AsString(); isStr {
			libelle = strings.TrimSpace(s)
		}
	}
	return id, libelle
}
