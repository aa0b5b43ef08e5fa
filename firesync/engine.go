package firesync

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/sirupsen/logrus"
)

var errNotSynchronized = errors.New("verification failed, stores still diverge")

// FullSync runs the strict state machine: push local-only records, pull
// remote-only documents, then verify convergence. Local mutations happen in
// one transaction and roll back when verification fails. Remote writes made
// during the push phase cannot be compensated, so a rolled back sync reports
// RemoteWritesKept.
func (s *Service) FullSync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{
		State:     StateIdle,
		StartedAt: time.Now(),
		Push:      map[EntityType]*SyncOutcome{},
		Pull:      map[EntityType]*SyncOutcome{},
	}

	txErr := s.store.Transaction(ctx, func(tx Store) error {
		report.State = StatePushing
		pushedAny, err := s.pushAll(ctx, tx, report.Push)
		if err != nil {
			return err
		}
		report.RemoteWritesKept = pushedAny

		report.State = StatePulling
		if err := s.pullAll(ctx, tx, report.Pull); err != nil {
			return err
		}

		report.State = StateVerifying
		results, err := s.compareAllWith(ctx, tx)
		if err != nil {
			return err
		}
		missing := 0
		for _, result := range results {
			report.Verification = append(report.Verification, summarize(result))
			missing += len(result.LocalOnly) + len(result.RemoteOnly)
		}
		if missing > 0 {
			return errNotSynchronized
		}
		return nil
	})

	report.FinishedAt = time.Now()
	if txErr != nil {
		report.State = StateRolledBack
		report.Synchronized = false
		report.Error = txErr.Error()
		s.logger.WithFields(logrus.Fields{
			"state":              report.State,
			"remote_writes_kept": report.RemoteWritesKept,
			"error":              txErr.Error(),
		}).Error("full sync rolled back")
		return report, txErr
	}

	report.State = StateCommitted
	report.Synchronized = true
	report.RemoteWritesKept = false
	s.logger.WithField("duration", report.FinishedAt.Sub(report.StartedAt).String()).Info("full sync committed")
	return report, nil
}

// ForceSyncToFirebase runs only the push phase, best effort: record failures
// are reported but do not fail the operation.
func (s *Service) ForceSyncToFirebase(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{
		State:     StatePushing,
		StartedAt: time.Now(),
		Push:      map[EntityType]*SyncOutcome{},
	}
	pushedAny, err := s.pushAll(ctx, s.store, report.Push)
	report.FinishedAt = time.Now()
	report.RemoteWritesKept = pushedAny
	if err != nil {
		report.State = StateRolledBack
		report.Error = err.Error()
		return report, err
	}
	report.State = StateCommitted
	return report, nil
}

// ForceSyncFromFirebase runs only the pull phase, best effort.
func (s *Service) ForceSyncFromFirebase(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{
		State:     StatePulling,
		StartedAt: time.Now(),
		Pull:      map[EntityType]*SyncOutcome{},
	}
	err := s.pullAll(ctx, s.store, report.Pull)
	report.FinishedAt = time.Now()
	if err != nil {
		report.State = StateRolledBack
		report.Error = err.Error()
		return report, err
	}
	report.State = StateCommitted
	return report, nil
}

// pushAll upserts every local-only record remotely, in the fixed type order,
// using the local id as the remote document id so the mapping stays
// invertible. Returns whether at least one remote write happened.
func (s *Service) pushAll(ctx context.Context, store Store, outcomes map[EntityType]*SyncOutcome) (bool, error) {
	pushedAny := false
	for _, entityType := range SyncOrder {
		result, err := s.compareWith(ctx, store, entityType)
		if err != nil {
			return pushedAny, err
		}

		outcome := &SyncOutcome{}
		outcomes[entityType] = outcome
		for _, snapshot := range result.LocalOnly {
			doc, err := s.gateway.UpsertDocument(ctx, entityType.Collection(), snapshot.ID, snapshot.Fields)
			if err != nil {
				outcome.recordFailure(err)
				s.logger.WithFields(logrus.Fields{
					"type": entityType,
					"id":   snapshot.ID,
				}).WithError(err).Warn("push failed")
				continue
			}
			pushedAny = true
			if err := s.markSynced(ctx, store, entityType, snapshot.ID, doc.ID); err != nil {
				outcome.recordFailure(err)
				continue
			}
			outcome.recordSuccess()
		}
	}
	return pushedAny, nil
}

func (s *Service) markSynced(ctx context.Context, store Store, entityType EntityType, localID string, docID string) error {
	id, err := strconv.Atoi(localID)
	if err != nil {
		return err
	}
	switch entityType {
	case TypeUtilisateurs:
		return store.MarkUtilisateurSynced(ctx, id, docID)
	case TypeSignalements:
		return store.MarkSignalementSynced(ctx, id)
	}
	// companies and roles carry no synced marker
	return nil
}

// pullAll materializes every remote-only document locally, in the fixed type
// order. Record failures are accumulated, not fatal.
func (s *Service) pullAll(ctx context.Context, store Store, outcomes map[EntityType]*SyncOutcome) error {
	for _, entityType := range SyncOrder {
		result, err := s.compareWith(ctx, store, entityType)
		if err != nil {
			return err
		}

		outcome := &SyncOutcome{}
		outcomes[entityType] = outcome
		for _, doc := range result.RemoteOnly {
			if err := s.pullOne(ctx, store, entityType, doc); err != nil {
				outcome.recordFailure(err)
				s.logger.WithFields(logrus.Fields{
					"type": entityType,
					"id":   doc.ID,
				}).WithError(err).Warn("pull failed")
				continue
			}
			outcome.recordSuccess()
		}
	}
	return nil
}

func (s *Service) pullOne(ctx context.Context, store Store, entityType EntityType, doc firestore.Document) error {
	switch entityType {
	case TypeUtilisateurs:
		return s.pullUtilisateur(ctx, store, doc)
	case TypeSignalements:
		signalement, histo := signalementFromDocument(doc)
		return store.UpsertSignalement(ctx, signalement, histo)
	case TypeEntreprises:
		id, nom := entrepriseFromDocument(doc)
		if id == 0 || nom == "" {
			return errors.New("entreprise document missing id or nom")
		}
		return store.UpsertEntreprise(ctx, id, nom)
	case TypeRoles:
		id, libelle := roleFromDocument(doc)
		if id == 0 || libelle == "" {
			return errors.New("role document missing id or libelle")
		}
		return store.UpsertRole(ctx, id, libelle)
	}
	return errors.New("unknown entity type " + string(entityType))
}

// pullUtilisateur updates an existing account in place when the document's
// email matches one locally, otherwise inserts a new account. A pulled
// account gets no password hash: it cannot log in until a reset.
func (s *Service) pullUtilisateur(ctx context.Context, store Store, doc firestore.Document) error {
	roles, err := store.ListRoles(ctx)
	if err != nil {
		return err
	}
	incoming := utilisateurFromDocument(doc, roles)
	if incoming.Email == "" {
		return errors.New("utilisateur document missing email")
	}

	existing, err := store.FindUtilisateurByEmail(ctx, incoming.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Nom = incoming.Nom
		existing.Role = incoming.Role
		existing.FirebaseUid = incoming.FirebaseUid
		return store.SaveUtilisateur(ctx, existing)
	}

	if id, convErr := strconv.Atoi(doc.ID); convErr == nil {
		incoming.ID = id
	}
	incoming.MotDePasse = ""
	return store.SaveUtilisateur(ctx, incoming)
}

func summarize(result *ComparisonResult) *TypeSummary {
	summary := &TypeSummary{
		Type:         result.Type,
		LocalCount:   result.LocalCount,
		RemoteCount:  result.RemoteCount,
		LocalOnly:    len(result.LocalOnly),
		RemoteOnly:   len(result.RemoteOnly),
		Synchronized: result.Synchronized(),
	}
	for _, snapshot := range result.LocalOnly {
		summary.LocalOnlyIds = append(summary.LocalOnlyIds, snapshot.ID)
	}
	for _, doc := range result.RemoteOnly {
		summary.RemoteOnlyIds = append(summary.RemoteOnlyIds, doc.ID)
	}
	return summary
}
