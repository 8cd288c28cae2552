// Package service defines the backend-agnostic interface for SpaceQuest operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Task is a mission log entry (objective). Owned by the server; the client
// only ever holds a cached, possibly stale copy.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	XPReward     int        `json:"xpReward"`
	CreditReward int        `json:"creditReward,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ProjectID    string     `json:"projectId,omitempty"`
	Status       string     `json:"status"` // column identifier
	Assignee     string     `json:"assignee,omitempty"`
}

// Column is one board column. Tasks reference it through Task.Status.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// ProjectSummary is a row of GET /projects.
type ProjectSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"memberCount"`
}

// Project is a shared expedition board as returned by GET /projects/:id.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []Column `json:"columns"`
	Tasks       []Task   `json:"tasks"`
	Members     []string `json:"members,omitempty"`
}

// Profile is the signed-in player. XP is authoritative; Level is the
// server's claim and is re-derived client-side from XP.
type Profile struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	XP       int      `json:"xp"`
	Level    int      `json:"level"`
	Credits  int      `json:"credits"`
	Badges   []string `json:"badges,omitempty"`
}

// CompleteResult is the event-result payload of POST /tasks/:id/complete.
type CompleteResult struct {
	TaskID          string `json:"taskId"`
	XPAwarded       int    `json:"xpAwarded"`
	CreditsAwarded  int    `json:"creditsAwarded"`
	LevelBefore     int    `json:"levelBefore"`
	LevelAfter      int    `json:"levelAfter"`
	LevelUp         bool   `json:"levelUp"`
	PowerUpConsumed string `json:"powerUpConsumed,omitempty"`
	TotalXP         int    `json:"totalXp"`
}

// LeaderboardEntry is one ranked player. Position is 1-based.
type LeaderboardEntry struct {
	Position int    `json:"position"`
	Username string `json:"username"`
	Level    int    `json:"level"`
	XP       int    `json:"xp"`
}

// ShopItem is a cosmetic item purchasable with credits.
type ShopItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Price int    `json:"price"`
	Owned bool   `json:"owned"`
}

// PurchaseResult is returned by a successful purchase.
type PurchaseResult struct {
	ItemID      string `json:"itemId"`
	CreditsLeft int    `json:"creditsLeft"`
}

// RewardResult is returned by a successful reward claim.
type RewardResult struct {
	RewardID       string `json:"rewardId"`
	XPAwarded      int    `json:"xpAwarded"`
	CreditsAwarded int    `json:"creditsAwarded"`
}

// NewTask holds the fields of POST /tasks.
type NewTask struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	XPReward     int        `json:"xpReward"`
	CreditReward int        `json:"creditReward,omitempty"`
	ProjectID    string     `json:"projectId,omitempty"`
	Status       string     `json:"status,omitempty"`
	Assignee     string     `json:"assignee,omitempty"`
}

// Validate checks the required fields before any network call.
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if n.XPReward < 0 {
		return fmt.Errorf("%w: xp reward must not be negative", ErrValidation)
	}
	if n.CreditReward < 0 {
		return fmt.Errorf("%w: credit reward must not be negative", ErrValidation)
	}
	return nil
}

// TaskUpdate holds the fields of PUT /tasks/:id. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	XPReward    *int       `json:"xpReward,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
}

// Validate rejects updates that would blank the title or carry nothing.
func (u TaskUpdate) Validate() error {
	if u.Title == nil && u.Description == nil && u.DueDate == nil && u.XPReward == nil && u.Assignee == nil {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if u.XPReward != nil && *u.XPReward < 0 {
		return fmt.Errorf("%w: xp reward must not be negative", ErrValidation)
	}
	return nil
}
