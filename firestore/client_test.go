package firestore

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testCredentials(t *testing.T, tokenURI string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	creds, err := json.Marshal(map[string]string{
		"project_id":   "test-project",
		"client_email": "svc@test-project.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
		"token_uri":    tokenURI,
	})
	if err != nil {
		t.Fatalf("marshal creds: %v", err)
	}
	return string(creds)
}

// newTestClient wires a client against a fake token endpoint and Firestore
// served by the given handler. The handler only sees document requests.
func newTestClient(t *testing.T, docs http.HandlerFunc) (*Client, *int) {
	t.Helper()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, tokenCalls)
	})
	mux.HandleFunc("/", docs)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Setenv("FIREBASE_CREDENTIALS_JSON", testCredentials(t, server.URL+"/token"))
	t.Setenv("FIRESTORE_BASE_URL", server.URL+"/v1")

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, &tokenCalls
}

func TestListDocuments(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":runQuery") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer tok-") {
			t.Errorf("missing bearer token, got %q", auth)
		}
		fmt.Fprint(w, `[
			{"document":{"name":"projects/test-project/databases/(default)/documents/utilisateurs/1","fields":{"email":{"stringValue":"a@b.mg"},"role":{"integerValue":"3"}}}},
			{"document":{"name":"projects/test-project/databases/(default)/documents/utilisateurs/2","fields":{"email":{"stringValue":"c@d.mg"}}}},
			{"readTime":"2024-01-01T00:00:00Z"}
		]`)
	})

	docs, err := client.ListDocuments(context.Background(), "utilisateurs")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "1" || docs[1].ID != "2" {
		t.Fatalf("unexpected ids %s %s", docs[0].ID, docs[1].ID)
	}
	if v, _ := docs[0].Field("role"); v.Int != 3 {
		t.Fatalf("expected role 3, got %d", v.Int)
	}
	if *tokenCalls != 1 {
		t.Fatalf("expected 1 token fetch, got %d", *tokenCalls)
	}
}

func TestListDocuments_TokenCachedAcrossCalls(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.ListDocuments(ctx, "roles"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if *tokenCalls != 1 {
		t.Fatalf("expected token to be cached, got %d fetches", *tokenCalls)
	}
}

func TestListDocuments_RetriesOnceAfter401(t *testing.T) {
	docCalls := 0
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		docCalls++
		if docCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	if _, err := client.ListDocuments(context.Background(), "roles"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if docCalls != 2 {
		t.Fatalf("expected 2 document calls, got %d", docCalls)
	}
	if *tokenCalls != 2 {
		t.Fatalf("expected token refresh after 401, got %d fetches", *tokenCalls)
	}
}

func TestListDocuments_ServerErrorIsRemoteUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.ListDocuments(context.Background(), "roles")
	if !IsRemoteUnavailable(err) {
		t.Fatalf("expected RemoteUnavailable, got %v", err)
	}
}

func TestListDocuments_MalformedPayloadIsDecodeError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"an array"}`)
	})
	_, err := client.ListDocuments(context.Background(), "roles")
	if !IsDecodeError(err) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestUpsertDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/signalements/12") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Fields map[string]Value `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if v := body.Fields["titre"]; v.Str != "nid de poule" {
			t.Errorf("unexpected titre %q", v.Str)
		}
		resp, _ := json.Marshal(map[string]interface{}{
			"name":   "projects/test-project/databases/(default)/documents/signalements/12",
			"fields": body.Fields,
		})
		w.Write(resp)
	})

	doc, err := client.UpsertDocument(context.Background(), "signalements", "12", map[string]Value{
		"titre":  String("nid de poule"),
		"statut": Integer(1),
	})
	if err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	if doc.ID != "12" {
		t.Fatalf("expected id 12, got %s", doc.ID)
	}
	if v, _ := doc.Field("statut"); v.Int != 1 {
		t.Fatalf("statut not echoed back, got %+v", v)
	}
}
