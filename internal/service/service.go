// Package service defines the backend-agnostic interface for SpaceQuest operations.
package service

import (
	"context"
	"errors"
)

// Errors returned by Service implementations. Callers branch with errors.Is.
var (
	// ErrNotFound is returned when a project, task or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned when a name matches more than one project.
	ErrAmbiguous = errors.New("ambiguous")

	// ErrUnauthorized is returned on a 401; the session is gone.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRejected is returned when the server refuses a mutation (409/422).
	ErrRejected = errors.New("rejected by server")

	// ErrValidation is returned for input that fails client-side checks.
	ErrValidation = errors.New("invalid input")
)

// Service defines the interface for SpaceQuest backend operations.
// All REST calls go through this interface.
// Commands never import the HTTP client directly.
type Service interface {
	// Profile returns the signed-in player.
	Profile(ctx context.Context) (Profile, error)

	// ListProjects returns all expeditions the player belongs to, in API order.
	ListProjects(ctx context.Context) ([]ProjectSummary, error)

	// GetProject returns a full board: columns, tasks and members.
	GetProject(ctx context.Context, id string) (Project, error)

	// ResolveProject finds a project by ID or name (case-insensitive, trimmed).
	// Returns ErrNotFound or ErrAmbiguous.
	ResolveProject(ctx context.Context, ref string) (ProjectSummary, error)

	// AddMember adds a player to an expedition.
	AddMember(ctx context.Context, projectID, username string) error

	// ListTasks returns the player's personal objectives.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. The input is validated before the request.
	CreateTask(ctx context.Context, task NewTask) (Task, error)

	// UpdateTask edits task fields.
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (Task, error)

	// MoveTask sets a task's status (board column).
	MoveTask(ctx context.Context, id, newStatus string) error

	// CompleteTask marks a task done and returns the resulting game events.
	CompleteTask(ctx context.Context, id string) (CompleteResult, error)

	// Leaderboard returns ranked players.
	Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)

	// ShopItems returns the cosmetic item catalogue.
	ShopItems(ctx context.Context) ([]ShopItem, error)

	// Purchase buys an item with credits.
	Purchase(ctx context.Context, itemID string) (PurchaseResult, error)

	// ClaimReward claims a pending reward.
	ClaimReward(ctx context.Context, rewardID string) (RewardResult, error)
}
