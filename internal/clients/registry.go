// Package clients records the contact e-mail of each Telegram user in the CMS.
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/internal/shop"
)

// Backend is the part of the CMS client the registry needs.
type Backend interface {
	FindClientByUser(ctx context.Context, userID int64) (shop.Client, bool, error)
	CreateClient(ctx context.Context, userID int64, email string) (shop.Client, error)
	UpdateClient(ctx context.Context, key string, email string) (shop.Client, error)
}

// Registry upserts clients by Telegram user id.
type Registry struct {
	backend Backend
}

// NewRegistry wraps a CMS backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend}
}

// UpsertClient stores email for userID, updating the existing record when there is one.
func (r *Registry) UpsertClient(ctx context.Context, userID int64, email string) (shop.Client, error) {
	email = strings.TrimSpace(email)
	existing, ok, err := r.backend.FindClientByUser(ctx, userID)
	if err != nil {
		return shop.Client{}, fmt.Errorf("find client for user %d: %w", userID, err)
	}

	var (
		client shop.Client
		action string
	)
	if ok {
		action = "updated"
		client, err = r.backend.UpdateClient(ctx, existing.Key(), email)
		if err != nil {
			return shop.Client{}, fmt.Errorf("update client %s: %w", existing.Key(), err)
		}
	} else {
		action = "created"
		client, err = r.backend.CreateClient(ctx, userID, email)
		if err != nil {
			return shop.Client{}, fmt.Errorf("create client for user %d: %w", userID, err)
		}
	}
	client.UserID = userID
	if client.Email == "" {
		client.Email = email
	}

	logger.Info(ctx, "service.clients", "client."+action,
		slog.Int64("client_id", client.ID),
		slog.Int64("user_id", userID),
	)
	return client, nil
}
