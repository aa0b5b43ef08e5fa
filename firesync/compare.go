package firesync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/sirupsen/logrus"
)

// Gateway is the remote side of the comparison. *firestore.Client satisfies
// it; tests substitute a fake.
type Gateway interface {
	ListDocuments(ctx context.Context, collection string) ([]firestore.Document, error)
	UpsertDocument(ctx context.Context, collection string, id string, fields map[string]firestore.Value) (firestore.Document, error)
}

type Service struct {
	store   Store
	gateway Gateway
	logger  *logrus.Logger
}

func NewService(store Store, gateway Gateway, logger *logrus.Logger) *Service {
	return &Service{store: store, gateway: gateway, logger: logger}
}

// Compare diffs one entity type between the local store and the remote
// collection. It never mutates either side.
func (s *Service) Compare(ctx context.Context, entityType EntityType) (*ComparisonResult, error) {
	return s.compareWith(ctx, s.store, entityType)
}

func (s *Service) compareWith(ctx context.Context, store Store, entityType EntityType) (*ComparisonResult, error) {
	remoteDocs, err := s.gateway.ListDocuments(ctx, entityType.Collection())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", entityType, err)
	}

	remoteIDs := make(map[string]bool, len(remoteDocs))
	for _, doc := range remoteDocs {
		remoteIDs[doc.ID] = true
	}

	switch entityType {
	case TypeUtilisateurs:
		return s.compareUtilisateurs(ctx, store, remoteDocs, remoteIDs)
	case TypeSignalements:
		return s.compareSignalements(ctx, store, remoteDocs, remoteIDs)
	case TypeEntreprises:
		return s.compareEntreprises(ctx, store, remoteDocs, remoteIDs)
	case TypeRoles:
		return s.compareRoles(ctx, store, remoteDocs, remoteIDs)
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}

// CompareAll runs the comparison on every entity type in the fixed order.
func (s *Service) CompareAll(ctx context.Context) ([]*ComparisonResult, error) {
	return s.compareAllWith(ctx, s.store)
}

func (s *Service) compareAllWith(ctx context.Context, store Store) ([]*ComparisonResult, error) {
	results := make([]*ComparisonResult, 0, len(SyncOrder))
	for _, entityType := range SyncOrder {
		result, err := s.compareWith(ctx, store, entityType)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// compareUtilisateurs applies the two user-specific matching rules: a local
// user already carrying a remote reference is never local-only even when a
// flaky read makes its id look absent, and a remote document whose email
// matches an existing local account is never remote-only even when ids
// differ.
func (s *Service) compareUtilisateurs(ctx context.Context, store Store, remoteDocs []firestore.Document, remoteIDs map[string]bool) (*ComparisonResult, error) {
	users, err := store.ListUtilisateurs(ctx)
	if err != nil {
		return nil, err
	}

	localIDs := make(map[string]bool, len(users))
	localEmails := make(map[string]bool, len(users))
	for _, u := range users {
		localIDs[strconv.Itoa(u.ID)] = true
		localEmails[utils.NormalizeEmail(u.Email)] = true
	}

	result := &ComparisonResult{
		Type:        TypeUtilisateurs,
		LocalCount:  len(users),
		RemoteCount: len(remoteDocs),
	}

	for i := range users {
		u := &users[i]
		if u.FirebaseUid != nil && *u.FirebaseUid != "" {
			continue
		}
		if remoteIDs[strconv.Itoa(u.ID)] {
			continue
		}
		result.LocalOnly = append(result.LocalOnly, LocalSnapshot{
			ID:     strconv.Itoa(u.ID),
			Fields: utilisateurToRemote(u),
		})
	}

	for _, doc := range remoteDocs {
		if localIDs[doc.ID] {
			continue
		}
		if email, ok := remoteEmail(doc); ok && localEmails[email] {
			continue
		}
		result.RemoteOnly = append(result.RemoteOnly, doc)
	}
	return result, nil
}

func remoteEmail(doc firestore.Document) (string, bool) {
	v, ok := doc.Field("email")
	if !ok {
		return "", false
	}
	s, isStr := v.AsString()
	if !isStr || s == "" {
		return "", false
	}
	return utils.NormalizeEmail(s), true
}

// compareSignalements matches purely by id. The synced flag is informational:
// a report absent remotely gets re-pushed regardless of it, the remote store
// being the source of truth for existence.
func (s *Service) compareSignalements(ctx context.Context, store Store, remoteDocs []firestore.Document, remoteIDs map[string]bool) (*ComparisonResult, error) {
	signalements, err := store.ListSignalements(ctx)
	if err != nil {
		return nil, err
	}

	localIDs := make(map[string]bool, len(signalements))
	for _, record := range signalements {
		localIDs[strconv.Itoa(record.ID)] = true
	}

	result := &ComparisonResult{
		Type:        TypeSignalements,
		LocalCount:  len(signalements),
		RemoteCount: len(remoteDocs),
	}

	for i := range signalements {
		record := &signalements[i]
		if remoteIDs[strconv.Itoa(record.ID)] {
			continue
		}
		result.LocalOnly = append(result.LocalOnly, LocalSnapshot{
			ID:     strconv.Itoa(record.ID),
			Fields: signalementToRemote(record),
		})
	}

	for _, doc := range remoteDocs {
		if !localIDs[doc.ID] {
			result.RemoteOnly = append(result.RemoteOnly, doc)
		}
	}
	return result, nil
}

func (s *Service) compareEntreprises(ctx context.Context, store Store, remoteDocs []firestore.Document, remoteIDs map[string]bool) (*ComparisonResult, error) {
	entreprises, err := store.ListEntreprises(ctx)
	if err != nil {
		return nil, err
	}

	localIDs := make(map[string]bool, len(entreprises))
	for _, record := range entreprises {
		localIDs[strconv.Itoa(record.ID)] = true
	}

	result := &ComparisonResult{
		Type:        TypeEntreprises,
		LocalCount:  len(entreprises),
		RemoteCount: len(remoteDocs),
	}
	for i := range entreprises {
		record := &entreprises[i]
		if !remoteIDs[strconv.Itoa(record.ID)] {
			result.LocalOnly = append(result.LocalOnly, LocalSnapshot{
				ID:     strconv.Itoa(record.ID),
				Fields: entrepriseToRemote(record),
			})
		}
	}
	for _, doc := range remoteDocs {
		if !localIDs[doc.ID] {
			result.RemoteOnly = append(result.RemoteOnly, doc)
		}
	}
	return result, nil
}

func (s *Service) compareRoles(ctx context.Context, store Store, remoteDocs []firestore.Document, remoteIDs map[string]bool) (*ComparisonResult, error) {
	roles, err := store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	localIDs := make(map[string]bool, len(roles))
	for _, record := range roles {
		localIDs[strconv.Itoa(record.ID)] = true
	}

	result := &ComparisonResult{
		Type:        TypeRoles,
		LocalCount:  len(roles),
		RemoteCount: len(remoteDocs),
	}
	for i := range roles {
		record := &roles[i]
		if !remoteIDs[strconv.Itoa(record.ID)] {
			result.LocalOnly = append(result.LocalOnly, LocalSnapshot{
				ID:     strconv.Itoa(record.ID),
				Fields: roleToRemote(record),
			})
		}
	}
	for _, doc := range remoteDocs {
		if !localIDs[doc.ID] {
			result.RemoteOnly = append(result.RemoteOnly, doc)
		}
	}
	return result, nil
}
