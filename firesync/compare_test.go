package firesync

import (
	"context"
	"testing"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
)

func TestCompare_EmptyRemote(t *testing.T) {
	store := newFakeStore()
	store.users[1] = localUser(1, "a@b.mg")
	store.users[2] = localUser(2, "c@d.mg")
	s := newTestService(store, newFakeGateway())

	result, err := s.Compare(context.Background(), TypeUtilisateurs)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.RemoteCount != 0 {
		t.Fatalf("expected remote_count 0, got %d", result.RemoteCount)
	}
	if len(result.LocalOnly) != 2 {
		t.Fatalf("expected 2 local-only, got %d", len(result.LocalOnly))
	}
	if len(result.RemoteOnly) != 0 {
		t.Fatalf("expected 0 remote-only, got %d", len(result.RemoteOnly))
	}
}

func TestCompare_EmptyLocal(t *testing.T) {
	gateway := newFakeGateway()
	gateway.put("signalements", "7", map[string]firestore.Value{"titre": firestore.String("x")})
	s := newTestService(newFakeStore(), gateway)

	result, err := s.Compare(context.Background(), TypeSignalements)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.LocalCount != 0 || len(result.LocalOnly) != 0 {
		t.Fatalf("expected empty local side, got count=%d only=%d", result.LocalCount, len(result.LocalOnly))
	}
	if len(result.RemoteOnly) != 1 || result.RemoteOnly[0].ID != "7" {
		t.Fatalf("expected remote-only [7], got %+v", result.RemoteOnly)
	}
}

func TestCompare_SetsAreDisjoint(t *testing.T) {
	store := newFakeStore()
	store.signalements[1] = models.Signalement{ID: 1, Titre: "local et remote"}
	store.signalements[2] = models.Signalement{ID: 2, Titre: "local seulement"}
	gateway := newFakeGateway()
	gateway.put("signalements", "1", map[string]firestore.Value{"titre": firestore.String("local et remote")})
	gateway.put("signalements", "3", map[string]firestore.Value{"titre": firestore.String("remote seulement")})
	s := newTestService(store, gateway)

	result, err := s.Compare(context.Background(), TypeSignalements)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	localIDs := map[string]bool{}
	for _, snap := range result.LocalOnly {
		localIDs[snap.ID] = true
	}
	for _, doc := range result.RemoteOnly {
		if localIDs[doc.ID] {
			t.Fatalf("id %s appears in both local-only and remote-only", doc.ID)
		}
	}
	if len(result.LocalOnly) != 1 || result.LocalOnly[0].ID != "2" {
		t.Fatalf("expected local-only [2], got %+v", result.LocalOnly)
	}
	if len(result.RemoteOnly) != 1 || result.RemoteOnly[0].ID != "3" {
		t.Fatalf("expected remote-only [3], got %+v", result.RemoteOnly)
	}
}

func TestCompare_UserWithRemoteRefIsNeverLocalOnly(t *testing.T) {
	store := newFakeStore()
	synced := localUser(1, "a@b.mg")
	uid := "1"
	synced.FirebaseUid = &uid
	store.users[1] = synced
	// empty remote simulates a flaky read: the user still must not re-push
	s := newTestService(store, newFakeGateway())

	result, err := s.Compare(context.Background(), TypeUtilisateurs)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(result.LocalOnly) != 0 {
		t.Fatalf("user with a remote reference must not be local-only, got %+v", result.LocalOnly)
	}
}

func TestCompare_RemoteUserMatchingLocalEmailIsNotRemoteOnly(t *testing.T) {
	store := newFakeStore()
	store.users[1] = localUser(1, "jean@mairie.mg")
	gateway := newFakeGateway()
	// regenerated remote id, same account
	gateway.put("utilisateurs", "abc-999", map[string]firestore.Value{
		"email": firestore.String("  Jean@Mairie.MG "),
	})
	s := newTestService(store, gateway)

	result, err := s.Compare(context.Background(), TypeUtilisateurs)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(result.RemoteOnly) != 0 {
		t.Fatalf("email-matched document must be excluded from remote-only, got %+v", result.RemoteOnly)
	}
}

func TestCompare_SignalementSyncedFlagIsNotAGate(t *testing.T) {
	store := newFakeStore()
	store.signalements[5] = models.Signalement{ID: 5, Titre: "x", SynchroniseFirebase: true}
	s := newTestService(store, newFakeGateway())

	result, err := s.Compare(context.Background(), TypeSignalements)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(result.LocalOnly) != 1 {
		t.Fatalf("report absent remotely must be re-pushed even when flagged synced, got %+v", result.LocalOnly)
	}
}
