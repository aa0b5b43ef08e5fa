package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	defaultBaseURL    = "https://firestore.googleapis.com/v1"
	datastoreScope    = "https://www.googleapis.com/auth/datastore"
	defaultTokenTTL   = 3500 * time.Second
	assertionLifetime = time.Hour
)

type serviceAccount struct {
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// Client talks to the Firestore REST API with a service-account credential.
// The OAuth access token is cached and refreshed lazily; a 401 invalidates
// the cache and the request is retried once with a fresh token.
type Client struct {
	baseURL   string
	projectID string
	creds     serviceAccount
	http      *http.Client
	tokenTTL  time.Duration

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient() (*Client, error) {
	raw := strings.TrimSpace(os.Getenv("FIREBASE_CREDENTIALS_JSON"))
	if raw == "" {
		path := strings.TrimSpace(os.Getenv("FIREBASE_CREDENTIALS_FILE"))
		if path == "" {
			return nil, fmt.Errorf("FIREBASE_CREDENTIALS_JSON or FIREBASE_CREDENTIALS_FILE is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = string(data)
	}

	var creds serviceAccount
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("invalid firebase credentials: %w", err)
	}
	if creds.ProjectID == "" || creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, fmt.Errorf("firebase credentials missing project_id, client_email or private_key")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = "https://oauth2.googleapis.com/token"
	}

	baseURL := strings.TrimSpace(os.Getenv("FIRESTORE_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	ttl := defaultTokenTTL
	if v, err := strconv.Atoi(os.Getenv("FIREBASE_TOKEN_TTL_SECONDS")); err == nil && v > 0 {
		ttl = time.Duration(v) * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: creds.ProjectID,
		creds:     creds,
		http:      &http.Client{Timeout: 30 * time.Second},
		tokenTTL:  ttl,
	}, nil
}

func (c *Client) documentsRoot() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents", c.baseURL, url.PathEscape(c.projectID))
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	assertion, err := c.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d: %s", ErrRemoteUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned an unusable payload", ErrRemoteUnavailable)
	}

	ttl := c.tokenTTL
	if parsed.ExpiresIn > 0 {
		granted := time.Duration(parsed.ExpiresIn) * time.Second
		if granted < ttl {
			ttl = granted - 30*time.Second
		}
	}

	c.mu.Lock()
	c.token = parsed.AccessToken
	c.tokenExp = time.Now().Add(ttl)
	c.mu.Unlock()
	return parsed.AccessToken, nil
}

func (c *Client) signAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.creds.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("invalid service account private key: %w", err)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.creds.ClientEmail,
		"scope": datastoreScope,
		"aud":   c.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExp = time.Time{}
	c.mu.Unlock()
}

// do runs one authenticated request. On 401 the cached token is dropped and
// the request retried once with a fresh one.
func (c *Client) do(ctx context.Context, method string, endpoint string, payload []byte) (int, []byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return 0, nil, err
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.invalidateToken()
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	return 0, nil, fmt.Errorf("%w: authentication retry exhausted", ErrRemoteUnavailable)
}

type runQueryRow struct {
	Document *struct {
		Name   string           `json:"name"`
		Fields map[string]Value `json:"fields"`
	} `json:"document"`
}

// ListDocuments returns every document of a collection via runQuery.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"structuredQuery": map[string]interface{}{
			"from": []map[string]interface{}{{"collectionId": collection}},
		},
	})
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodPost, c.documentsRoot()+":runQuery", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, statusError(status, collection, body)
	}

	var rows []runQueryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &DecodeError{Collection: collection, Detail: err.Error()}
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		if row.Document == nil {
			// runQuery emits a trailing readTime-only row
			continue
		}
		docs = append(docs, Document{
			ID:     documentID(row.Document.Name),
			Fields: row.Document.Fields,
		})
	}
	return docs, nil
}

// UpsertDocument writes a document at a caller-chosen id. Firestore PATCH on
// a full path creates the document when absent.
func (c *Client) UpsertDocument(ctx context.Context, collection string, id string, fields map[string]Value) (Document, error) {
	payload, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return Document{}, err
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.documentsRoot(), url.PathEscape(collection), url.PathEscape(id))
	status, body, err := c.do(ctx, http.MethodPatch, endpoint, payload)
	if err != nil {
		return Document{}, err
	}
	if status < 200 || status >= 300 {
		return Document{}, statusError(status, collection, body)
	}

	var parsed struct {
		Name   string           `json:"name"`
		Fields map[string]Value `json:"fields"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Document{}, &DecodeError{Collection: collection, Detail: err.Error()}
	}
	return Document{ID: documentID(parsed.Name), Fields: parsed.Fields}, nil
}

// CheckConnection verifies the credential and the remote store are reachable.
func (c *Client) CheckConnection(ctx context.Context) error {
	_, err := c.ListDocuments(ctx, "roles")
	return err
}

func statusError(status int, collection string, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 300 {
		detail = detail[:300]
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden || status >= 500 {
		return fmt.Errorf("%w: %s returned %d: %s", ErrRemoteUnavailable, collection, status, detail)
	}
	return fmt.Errorf("firestore %s returned %d: %s", collection, status, detail)
}

func documentID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
