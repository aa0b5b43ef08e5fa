package firesync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/sirupsen/logrus"
)

type fakeStore struct {
	users        map[int]models.Utilisateur
	signalements map[int]models.Signalement
	histo        []models.HistoSignalement
	entreprises  map[int]models.Entreprise
	roles        map[int]models.Role
	nextUserID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int]models.Utilisateur{},
		signalements: map[int]models.Signalement{},
		entreprises:  map[int]models.Entreprise{},
		roles: map[int]models.Role{
			models.RoleAdmin:   {ID: models.RoleAdmin, Libelle: "admin"},
			models.RoleManager: {ID: models.RoleManager, Libelle: "manager"},
			models.RoleUser:    {ID: models.RoleUser, Libelle: "user"},
		},
		nextUserID: 1000,
	}
}

func (f *fakeStore) ListUtilisateurs(ctx context.Context) ([]models.Utilisateur, error) {
	out := make([]models.Utilisateur, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListSignalements(ctx context.Context) ([]models.Signalement, error) {
	out := make([]models.Signalement, 0, len(f.signalements))
	for _, s := range f.signalements {
		s.Histo = nil
		for i := range f.histo {
			if f.histo[i].SignalementID == s.ID {
				entry := f.histo[i]
				s.Histo = append(s.Histo, &entry)
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListEntreprises(ctx context.Context) ([]models.Entreprise, error) {
	out := make([]models.Entreprise, 0, len(f.entreprises))
	for _, e := range f.entreprises {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) MarkUtilisateurSynced(ctx context.Context, id int, docID string) error {
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	u.FirebaseUid = &docID
	f.users[id] = u
	return nil
}

func (f *fakeStore) MarkSignalementSynced(ctx context.Context, id int) error {
	s, ok := f.signalements[id]
	if !ok {
		return fmt.Errorf("signalement %d not found", id)
	}
	s.SynchroniseFirebase = true
	f.signalements[id] = s
	return nil
}

func (f *fakeStore) FindUtilisateurByEmail(ctx context.Context, email string) (*models.Utilisateur, error) {
	for _, u := range f.users {
		if u.Email == utils.NormalizeEmail(email) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveUtilisateur(ctx context.Context, user *models.Utilisateur) error {
	if user.ID == 0 {
		f.nextUserID++
		user.ID = f.nextUserID
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) UpsertSignalement(ctx context.Context, signalement *models.Signalement, histo []models.HistoSignalement) error {
	stored := *signalement
	stored.Histo = nil
	f.signalements[signalement.ID] = stored
	for _, entry := range histo {
		exists := false
		for i := range f.histo {
			if f.histo[i].SignalementID == signalement.ID &&
				f.histo[i].Statut == entry.Statut &&
				f.histo[i].DateStatut.Equal(entry.DateStatut) {
				exists = true
				break
			}
		}
		if !exists {
			entry.SignalementID = signalement.ID
			f.histo = append(f.histo, entry)
		}
	}
	return nil
}

func (f *fakeStore) UpsertEntreprise(ctx context.Context, id int, nom string) error {
	f.entreprises[id] = models.Entreprise{ID: id, Nom: nom}
	return nil
}

func (f *fakeStore) UpsertRole(ctx context.Context, id int, libelle string) error {
	f.roles[id] = models.Role{ID: id, Libelle: libelle}
	return nil
}

func (f *fakeStore) snapshot() *fakeStore {
	clone := newFakeStore()
	clone.nextUserID = f.nextUserID
	clone.users = map[int]models.Utilisateur{}
	for k, v := range f.users {
		clone.users[k] = v
	}
	clone.signalements = map[int]models.Signalement{}
	for k, v := range f.signalements {
		clone.signalements[k] = v
	}
	clone.histo = append([]models.HistoSignalement(nil), f.histo...)
	clone.entreprises = map[int]models.Entreprise{}
	for k, v := range f.entreprises {
		clone.entreprises[k] = v
	}
	clone.roles = map[int]models.Role{}
	for k, v := range f.roles {
		clone.roles[k] = v
	}
	return clone
}

func (f *fakeStore) restore(from *fakeStore) {
	f.users = from.users
	f.signalements = from.signalements
	f.histo = from.histo
	f.entreprises = from.entreprises
	f.roles = from.roles
	f.nextUserID = from.nextUserID
}

func (f *fakeStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	before := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

// fakeGateway keeps collections in memory. dropWrites simulates a remote
// store that accepts upserts but loses them; failUpserts fails specific ids.
type fakeGateway struct {
	collections map[string]map[string]map[string]firestore.Value
	failUpserts map[string]error
	listErr     error
	dropWrites  bool
	upsertCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		collections: map[string]map[string]map[string]firestore.Value{},
		failUpserts: map[string]error{},
	}
}

func (g *fakeGateway) put(collection string, id string, fields map[string]firestore.Value) {
	if g.collections[collection] == nil {
		g.collections[collection] = map[string]map[string]firestore.Value{}
	}
	g.collections[collection][id] = fields
}

func (g *fakeGateway) ListDocuments(ctx context.Context, collection string) ([]firestore.Document, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	docs := make([]firestore.Document, 0, len(g.collections[collection]))
	for id, fields := range g.collections[collection] {
		docs = append(docs, firestore.Document{ID: id, Fields: fields})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (g *fakeGateway) UpsertDocument(ctx context.Context, collection string, id string, fields map[string]firestore.Value) (firestore.Document, error) {
	g.upsertCalls++
	if err, ok := g.failUpserts[collection+"/"+id]; ok {
		return firestore.Document{}, err
	}
	if !g.dropWrites {
		g.put(collection, id, fields)
	}
	return firestore.Document{ID: id, Fields: fields}, nil
}

func newTestService(store Store, gateway Gateway) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(store, gateway, logger)
}

func localUser(id int, email string) models.Utilisateur {
	return models.Utilisateur{
		ID:              id,
		Email:           email,
		Nom:             "User " + email,
		Role:            models.RoleUser,
		DateInscription: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
