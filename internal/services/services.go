// package services defines the interfaces the bridge consumes from the short-video generator
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/resolver"
)

// AccountService is the platform-account surface used for reconciliation.
type AccountService interface {
	// FindByIntegration returns the first account linked to integrationID, or nil when none is.
	FindByIntegration(ctx context.Context, integrationID string) (*models.GeneratorAccount, error)

	// ListAccounts lists accounts matching the filter.
	ListAccounts(ctx context.Context, f AccountFilter) (*models.AccountPage, error)

	// LinkAccount writes the link field of an existing account.
	LinkAccount(ctx context.Context, id string, link models.Link) error

	// CreateAccount creates an account from body.
	CreateAccount(ctx context.Context, body any) (*models.GeneratorAccount, error)

	// DeleteAccount removes one account.
	DeleteAccount(ctx context.Context, id string) (json.RawMessage, error)
}

// TaskService submits generation tasks.
type TaskService interface {
	CreateTask(ctx context.Context, req resolver.TaskRequest) (*TaskCreated, error)
}

var (
	_ AccountService = (*Generator)(nil)
	_ TaskService    = (*Generator)(nil)
)
