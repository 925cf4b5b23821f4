package authmanager

import (
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const oidcURLPart = "/.well-known/openid-configuration"

type OpenIDConfiguration struct {
	Issuer        string `json:"issuer"`
	JwksURI       string `json:"jwks_uri"`
	TokenEndpoint string `json:"token_endpoint"`
}

// AuthManager verifies bearer tokens against the identity provider's signing keys.
type AuthManager interface {
	GetJWKS() (*keyfunc.JWKS, error)
	Close()
}

type authManager struct {
	oidcBaseURL string
	restClient  *resty.Client
	jwksMutex   sync.Mutex
	jwks        *keyfunc.JWKS
	oidc        *OpenIDConfiguration
}

// NewAuthManager loads the OIDC discovery document and the JWKS. The keys are refreshed in
// the background and on unknown key ids.
func NewAuthManager(oidcBaseURL string, restClient *resty.Client) (AuthManager, error) {
	manager := &authManager{
		oidcBaseURL: oidcBaseURL,
		restClient:  restClient,
	}

	if _, err := manager.GetJWKS(); err != nil {
		return nil, err
	}

	return manager, nil
}

func (m *authManager) GetJWKS() (*keyfunc.JWKS, error) {
	m.jwksMutex.Lock()
	defer m.jwksMutex.Unlock()

	if m.jwks == nil {
		if err := m.loadJWKS(); err != nil {
			return nil, err
		}
	}
	return m.jwks, nil
}

func (m *authManager) Close() {
	m.jwksMutex.Lock()
	defer m.jwksMutex.Unlock()
	if m.jwks != nil {
		m.jwks.EndBackground()
	}
}

func (m *authManager) loadJWKS() error {
	if m.oidc == nil {
		oidc, err := m.callOIDCEndpoint()
		if err != nil {
			return err
		}
		m.oidc = oidc
	}

	jwks, err := keyfunc.Get(m.oidc.JwksURI, keyfunc.Options{
		Client:              m.restClient.GetClient(),
		RefreshErrorHandler: m.refreshErrorHandler,
		RefreshInterval:     time.Hour,
		RefreshRateLimit:    5 * time.Minute,
		RefreshUnknownKID:   true,
	})
	if err != nil {
		log.Error().Err(err).Msg(msgLoadJWKSFailed)
		return errors.Wrap(ErrFailedToLoadJWKS, err.Error())
	}
	m.jwks = jwks

	return nil
}

func (m *authManager) refreshErrorHandler(err error) {
	log.Error().Err(err).Msg(msgLoadJWKSFailed)
}

func (m *authManager) callOIDCEndpoint() (*OpenIDConfiguration, error) {
	response, err := m.restClient.R().
		SetHeader("Content-Type", "application/json").
		SetResult(&OpenIDConfiguration{}).
		Get(strings.TrimRight(m.oidcBaseURL, "/") + oidcURLPart)
	if err != nil {
		log.Error().Err(err).Msg(msgLoadOIDCFailed)
		return nil, errors.Wrap(err, msgLoadOIDCFailed)
	}

	if !response.IsSuccess() {
		log.Error().Str("status", response.Status()).Msg(msgLoadOIDCFailed)
		return nil, errors.Wrap(ErrOIDCConfiguration, response.Status())
	}

	return response.Result().(*OpenIDConfiguration), nil
}

const (
	msgLoadOIDCFailed = "Failed to load OIDC configuration from the identity provider"
	msgLoadJWKSFailed = "Failed to get JWKS from the identity provider"
)

var (
	ErrOIDCConfiguration = errors.New("OIDC .well-known/configuration could not be retrieved")
	ErrFailedToLoadJWKS  = errors.New("failed to load JWKS")
)
