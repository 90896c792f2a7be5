// Package credentials resolves the environment the automation engine runs
// with: the Azure subscription it deploys into and the state backend it
// reads and writes.
//
// Resolution authenticates against Azure once and is then reused until the
// TTL passes or the access token expires, whichever comes first.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// ManagementScope is the token scope of the Azure Resource Manager API.
const ManagementScope = "https://management.azure.com/.default"

// DefaultTTL bounds how long a resolved environment is reused.
const DefaultTTL = 15 * time.Minute

// expirySkew keeps a cached environment from outliving its token.
const expirySkew = time.Minute

// StateBackend locates the engine's state in S3-compatible storage.
type StateBackend struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// URL returns the engine backend URL for the bucket.
func (s StateBackend) URL() string {
	q := url.Values{}
	if s.Region != "" {
		q.Set("region", s.Region)
	}
	if s.Endpoint != "" {
		u, err := url.Parse(s.Endpoint)
		if err == nil && u.Host != "" {
			q.Set("endpoint", u.Host)
		} else {
			q.Set("endpoint", s.Endpoint)
		}
		q.Set("s3ForcePathStyle", "true")
	}
	if len(q) == 0 {
		return "s3://" + s.Bucket
	}
	return "s3://" + s.Bucket + "?" + q.Encode()
}

// Options configure a Provider.
type Options struct {
	SubscriptionID string
	TenantID       string
	State          StateBackend
	TTL            time.Duration
	// Now is used for cache expiry; defaults to time.Now.
	Now func() time.Time
}

// Provider implements stack.Credentials.
type Provider struct {
	cred azcore.TokenCredential
	opts Options

	mu      sync.Mutex
	cached  map[string]string
	expires time.Time
}

// New creates a provider using cred to authenticate.
func New(cred azcore.TokenCredential, opts Options) (*Provider, error) {
	if cred == nil {
		return nil, errors.New("credential is required")
	}
	if opts.SubscriptionID == "" {
		return nil, errors.New("subscription ID is required")
	}
	if opts.State.Bucket == "" {
		return nil, errors.New("state bucket is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{cred: cred, opts: opts}, nil
}

// NewDefault creates a provider on top of the Azure default credential chain
// (environment, workload identity, managed identity, Azure CLI).
func NewDefault(opts Options) (*Provider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: opts.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return New(cred, opts)
}

// Env returns the engine environment. The returned map is a copy.
func (p *Provider) Env(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.opts.Now()
	if p.cached != nil && now.Before(p.expires) {
		return maps.Clone(p.cached), nil
	}

	// The token only proves the login works and bounds the cache lifetime.
	// It is not handed to the engine, whose azure provider authenticates
	// again through its own credential chain using the ARM_* variables.
	token, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes:   []string{ManagementScope},
		TenantID: p.opts.TenantID,
	})
	if err != nil {
		p.cached = nil
		return nil, fmt.Errorf("failed to authenticate with Azure: %w", err)
	}

	env := map[string]string{
		"ARM_SUBSCRIPTION_ID": p.opts.SubscriptionID,
		"PULUMI_BACKEND_URL":  p.opts.State.URL(),
	}
	if p.opts.TenantID != "" {
		env["ARM_TENANT_ID"] = p.opts.TenantID
	}
	if p.opts.State.AccessKey != "" {
		env["AWS_ACCESS_KEY_ID"] = p.opts.State.AccessKey
		env["AWS_SECRET_ACCESS_KEY"] = p.opts.State.SecretKey
	}
	if p.opts.State.Region != "" {
		env["AWS_REGION"] = p.opts.State.Region
	}

	expires := now.Add(p.opts.TTL)
	if !token.ExpiresOn.IsZero() {
		if tokenExpiry := token.ExpiresOn.Add(-expirySkew); tokenExpiry.Before(expires) {
			expires = tokenExpiry
		}
	}

	p.cached = env
	p.expires = expires
	return maps.Clone(env), nil
}

// Invalidate drops the cached environment.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
}

// Credential exposes the underlying token credential for the Azure
// management clients.
func (p *Provider) Credential() azcore.TokenCredential {
	return p.cred
}
