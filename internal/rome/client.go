// Package rome fetches occupation records from the France Travail
// "ROME 4.0 - Métiers" API.
package rome

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultTokenURL = "https://entreprise.francetravail.fr/connexion/oauth2/access_token?realm=/partenaire"
	DefaultBaseURL  = "https://api.francetravail.io/partenaire/rome-metiers"

	httpTimeout  = 15 * time.Second
	maxBodyBytes = 5 * 1024 * 1024
	errBodyBytes = 512
)

// DefaultScopes are requested with every token.
var DefaultScopes = []string{"nomenclatureRome", "api_rome-metiersv1"}

// DefaultFields is the "champs" selector sent with every lookup.
// contextestravail asks for categorie too, otherwise the entries cannot be
// split into conditions and schedules.
var DefaultFields = strings.Join([]string{
	"code",
	"domaineprofessionnel(libelle,code,granddomaine(libelle,code))",
	"definition",
	"contextestravail(libelle,categorie)",
	"emploicadre",
	"formacodes(libelle,code)",
	"libelle",
	"secteursactivites(code,libelle)",
	"themes(code,libelle)",
	"transitiondemographique",
	"transitionecologique",
	"transitionecologiquedetaillee",
	"transitionnumerique",
}, ",")

// Config holds the client settings. Empty fields take the defaults above.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	Scopes       []string
	Fields       string
	Timeout      time.Duration
	Attempts     uint
	RetryDelay   time.Duration
}

// Client fetches occupation records. The underlying http.Client carries an
// OAuth2 client-credentials token source that caches and renews the token.
type Client struct {
	baseURL  string
	fields   string
	http     *http.Client
	attempts uint
	delay    time.Duration
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Scopes == nil {
		cfg.Scopes = DefaultScopes
	}
	if cfg.Fields == "" {
		cfg.Fields = DefaultFields
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	base := &http.Client{Timeout: cfg.Timeout}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(tokenCtx)
	hc.Timeout = cfg.Timeout

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		fields:   cfg.Fields,
		http:     hc,
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
	}
}

// UpstreamError is a non-2xx answer from the API.
type UpstreamError struct {
	Code   string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("rome api returned %d for %s: %s", e.Status, e.Code, e.Body)
}

// StatusCode exposes the HTTP status.
func (e *UpstreamError) StatusCode() int { return e.Status }

// NotFound reports whether the API rejected the code itself.
func (e *UpstreamError) NotFound() bool {
	return e.Status == http.StatusNotFound || e.Status == http.StatusBadRequest
}

// FetchMetier GETs /v1/metiers/metier/{code} and returns the raw JSON body.
// Network errors, 429 and 5xx are retried; other statuses and token errors
// are returned at once.
func (c *Client) FetchMetier(ctx context.Context, code string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v1/metiers/metier/%s", c.baseURL, url.PathEscape(code))
	params := url.Values{}
	params.Set("champs", c.fields)
	reqURL := endpoint + "?" + params.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.get(ctx, code, reqURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[rome] retry %d for %s: %v", n+1, code, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, code, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > errBodyBytes {
			snippet = snippet[:errBodyBytes]
		}
		return nil, &UpstreamError{Code: code, Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status == http.StatusTooManyRequests || ue.Status >= 500
	}
	return true
}
