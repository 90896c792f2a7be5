package keyvault

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/rs/zerolog"

	"github.com/imamik/safehaven/internal/stack"
)

// VaultsAPI is the part of the Key Vault management API the purger uses.
type VaultsAPI interface {
	// DeletedExists reports whether a soft-deleted vault with the name exists
	// in location.
	DeletedExists(ctx context.Context, name, location string) (bool, error)
	// Purge permanently deletes a soft-deleted vault and waits for completion.
	Purge(ctx context.Context, name, location string) error
}

// Purger implements stack.VaultPurger for one Azure location.
type Purger struct {
	api      VaultsAPI
	location string
	log      zerolog.Logger
}

// NewPurger creates a purger for vaults in location.
func NewPurger(api VaultsAPI, location string, log zerolog.Logger) *Purger {
	return &Purger{api: api, location: location, log: log}
}

// PurgeDeleted purges the soft-deleted vault named name. It returns
// stack.ErrAbsent when there is nothing to purge.
func (p *Purger) PurgeDeleted(ctx context.Context, name string) error {
	exists, err := p.api.DeletedExists(ctx, name, p.location)
	if err != nil {
		return fmt.Errorf("failed to look up deleted key vault %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("deleted key vault %s: %w", name, stack.ErrAbsent)
	}

	p.log.Info().Str("vault", name).Str("location", p.location).Msg("purging soft-deleted key vault")
	if err := p.api.Purge(ctx, name, p.location); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("deleted key vault %s: %w", name, stack.ErrAbsent)
		}
		return fmt.Errorf("failed to purge key vault %s: %w", name, err)
	}
	return nil
}

// ARMVaults adapts armkeyvault.VaultsClient to VaultsAPI.
type ARMVaults struct {
	client *armkeyvault.VaultsClient
}

// NewARMVaults creates the management client for a subscription.
func NewARMVaults(subscriptionID string, cred azcore.TokenCredential) (*ARMVaults, error) {
	client, err := armkeyvault.NewVaultsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create key vault client: %w", err)
	}
	return &ARMVaults{client: client}, nil
}

// DeletedExists implements VaultsAPI.
func (a *ARMVaults) DeletedExists(ctx context.Context, name, location string) (bool, error) {
	_, err := a.client.GetDeleted(ctx, name, location, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Purge implements VaultsAPI.
func (a *ARMVaults) Purge(ctx context.Context, name, location string) error {
	poller, err := a.client.BeginPurgeDeleted(ctx, name, location, nil)
	if err != nil {
		return err
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return err
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}
