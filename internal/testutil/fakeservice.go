// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"spacequest/internal/backend/restapi"
	"spacequest/internal/progress"
	"spacequest/internal/service"
)

// Move records one MoveTask call.
type Move struct {
	TaskID string
	Status string
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.RWMutex
	profile  service.Profile
	projects []service.Project
	personal []service.Task
	board    []service.LeaderboardEntry
	items    []service.ShopItem
	rewards  map[string]service.RewardResult
	moves    []Move
	nextID   int
	table    progress.ExperienceTable

	// Error injection for testing
	ProfileErr      error
	ListProjectsErr error
	GetProjectErr   error
	AddMemberErr    error
	ListTasksErr    error
	CreateTaskErr   error
	UpdateTaskErr   error
	MoveTaskErr     error
	CompleteTaskErr error
	LeaderboardErr  error
	ShopItemsErr    error
	PurchaseErr     error
	ClaimRewardErr  error
}

// NewFakeService creates a new FakeService with a level-1 player "nova".
func NewFakeService() *FakeService {
	return &FakeService{
		profile: service.Profile{ID: "u1", Username: "nova", Level: 1},
		rewards: make(map[string]service.RewardResult),
		table:   progress.CurveTable(50),
	}
}

// SetProfile replaces the signed-in player.
func (f *FakeService) SetProfile(p service.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
}

// AddProject adds a board. Tasks get their ProjectID set.
func (f *FakeService) AddProject(p service.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range p.Tasks {
		p.Tasks[i].ProjectID = p.ID
	}
	f.projects = append(f.projects, p)
}

// AddTask adds a personal objective.
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.personal = append(f.personal, t)
}

// SetLeaderboard replaces the ranking.
func (f *FakeService) SetLeaderboard(entries []service.LeaderboardEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.board = entries
}

// AddShopItem adds an item to the catalogue.
func (f *FakeService) AddShopItem(item service.ShopItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
}

// AddReward makes a reward claimable once.
func (f *FakeService) AddReward(r service.RewardResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rewards[r.RewardID] = r
}

// Moves returns the MoveTask calls seen so far.
func (f *FakeService) Moves() []Move {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Move(nil), f.moves...)
}

// Project returns the stored board (for assertions).
func (f *FakeService) Project(id string) (service.Project, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.projects {
		if p.ID == id {
			return cloneProject(p), true
		}
	}
	return service.Project{}, false
}

// Profile implements service.Service.
func (f *FakeService) Profile(ctx context.Context) (service.Profile, error) {
	if f.ProfileErr != nil {
		return service.Profile{}, f.ProfileErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.profile, nil
}

// ListProjects implements service.Service.
func (f *FakeService) ListProjects(ctx context.Context) ([]service.ProjectSummary, error) {
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.ProjectSummary, 0, len(f.projects))
	for _, p := range f.projects {
		result = append(result, service.ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			MemberCount: len(p.Members),
		})
	}
	return result, nil
}

// GetProject implements service.Service.
func (f *FakeService) GetProject(ctx context.Context, id string) (service.Project, error) {
	if f.GetProjectErr != nil {
		return service.Project{}, f.GetProjectErr
	}
	p, ok := f.Project(id)
	if !ok {
		return service.Project{}, fmt.Errorf("project %w: %s", service.ErrNotFound, id)
	}
	return p, nil
}

// ResolveProject implements service.Service.
func (f *FakeService) ResolveProject(ctx context.Context, ref string) (service.ProjectSummary, error) {
	projects, err := f.ListProjects(ctx)
	if err != nil {
		return service.ProjectSummary{}, err
	}
	return restapi.MatchProject(projects, ref)
}

// AddMember implements service.Service.
func (f *FakeService) AddMember(ctx context.Context, projectID, username string) error {
	if f.AddMemberErr != nil {
		return f.AddMemberErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.projects {
		if p.ID != projectID {
			continue
		}
		for _, m := range p.Members {
			if m == username {
				return fmt.Errorf("%w: %s is already a member", service.ErrRejected, username)
			}
		}
		f.projects[i].Members = append(f.projects[i].Members, username)
		return nil
	}
	return fmt.Errorf("project %w: %s", service.ErrNotFound, projectID)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.personal...), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.NewTask) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := service.Task{
		ID:           fmt.Sprintf("t%d", 100+f.nextID),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		DueDate:      in.DueDate,
		XPReward:     in.XPReward,
		CreditReward: in.CreditReward,
		ProjectID:    in.ProjectID,
		Status:       in.Status,
		Assignee:     in.Assignee,
	}
	if in.ProjectID == "" {
		f.personal = append(f.personal, t)
		return t, nil
	}
	for i, p := range f.projects {
		if p.ID == in.ProjectID {
			if t.Status == "" && len(p.Columns) > 0 {
				t.Status = p.Columns[0].ID
			}
			f.projects[i].Tasks = append(f.projects[i].Tasks, t)
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("project %w: %s", service.ErrNotFound, in.ProjectID)
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, u service.TaskUpdate) (service.Task, error) {
	if err := u.Validate(); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.findLocked(id)
	if t == nil {
		return service.Task{}, fmt.Errorf("task %w: %s", service.ErrNotFound, id)
	}
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.DueDate != nil {
		d := *u.DueDate
		t.DueDate = &d
	}
	if u.XPReward != nil {
		t.XPReward = *u.XPReward
	}
	if u.Assignee != nil {
		t.Assignee = *u.Assignee
	}
	return *t, nil
}

// MoveTask implements service.Service.
func (f *FakeService) MoveTask(ctx context.Context, id, newStatus string) error {
	f.mu.Lock()
	f.moves = append(f.moves, Move{TaskID: id, Status: newStatus})
	f.mu.Unlock()

	if f.MoveTaskErr != nil {
		return f.MoveTaskErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.findLocked(id)
	if t == nil {
		return fmt.Errorf("task %w: %s", service.ErrNotFound, id)
	}
	t.Status = newStatus
	return nil
}

// CompleteTask implements service.Service.
func (f *FakeService) CompleteTask(ctx context.Context, id string) (service.CompleteResult, error) {
	if f.CompleteTaskErr != nil {
		return service.CompleteResult{}, f.CompleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.findLocked(id)
	if t == nil {
		return service.CompleteResult{}, fmt.Errorf("task %w: %s", service.ErrNotFound, id)
	}
	if t.Completed {
		return service.CompleteResult{}, fmt.Errorf("%w: task already completed", service.ErrRejected)
	}
	now := time.Now()
	t.Completed = true
	t.CompletedAt = &now

	before := f.profile.Level
	f.profile.XP += t.XPReward
	f.profile.Credits += t.CreditReward
	f.profile.Level = progress.LevelFor(f.profile.XP, f.table)

	return service.CompleteResult{
		TaskID:         id,
		XPAwarded:      t.XPReward,
		CreditsAwarded: t.CreditReward,
		LevelBefore:    before,
		LevelAfter:     f.profile.Level,
		LevelUp:        f.profile.Level > before,
		TotalXP:        f.profile.XP,
	}, nil
}

// Leaderboard implements service.Service.
func (f *FakeService) Leaderboard(ctx context.Context) ([]service.LeaderboardEntry, error) {
	if f.LeaderboardErr != nil {
		return nil, f.LeaderboardErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.LeaderboardEntry(nil), f.board...), nil
}

// ShopItems implements service.Service.
func (f *FakeService) ShopItems(ctx context.Context) ([]service.ShopItem, error) {
	if f.ShopItemsErr != nil {
		return nil, f.ShopItemsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.ShopItem(nil), f.items...), nil
}

// Purchase implements service.Service.
func (f *FakeService) Purchase(ctx context.Context, itemID string) (service.PurchaseResult, error) {
	if f.PurchaseErr != nil {
		return service.PurchaseResult{}, f.PurchaseErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, item := range f.items {
		if item.ID != itemID {
			continue
		}
		if item.Owned {
			return service.PurchaseResult{}, fmt.Errorf("%w: item already owned", service.ErrRejected)
		}
		if f.profile.Credits < item.Price {
			return service.PurchaseResult{}, fmt.Errorf("%w: not enough credits", service.ErrRejected)
		}
		f.profile.Credits -= item.Price
		f.items[i].Owned = true
		return service.PurchaseResult{ItemID: itemID, CreditsLeft: f.profile.Credits}, nil
	}
	return service.PurchaseResult{}, fmt.Errorf("item %w: %s", service.ErrNotFound, itemID)
}

// ClaimReward implements service.Service.
func (f *FakeService) ClaimReward(ctx context.Context, rewardID string) (service.RewardResult, error) {
	if f.ClaimRewardErr != nil {
		return service.RewardResult{}, f.ClaimRewardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rewards[rewardID]
	if !ok {
		return service.RewardResult{}, fmt.Errorf("reward %w: %s", service.ErrNotFound, rewardID)
	}
	delete(f.rewards, rewardID)
	f.profile.XP += r.XPAwarded
	f.profile.Credits += r.CreditsAwarded
	f.profile.Level = progress.LevelFor(f.profile.XP, f.table)
	return r, nil
}

func (f *FakeService) findLocked(id string) *service.Task {
	for i := range f.personal {
		if f.personal[i].ID == id {
			return &f.personal[i]
		}
	}
	for pi := range f.projects {
		for ti := range f.projects[pi].Tasks {
			if f.projects[pi].Tasks[ti].ID == id {
				return &f.projects[pi].Tasks[ti]
			}
		}
	}
	return nil
}

func cloneProject(p service.Project) service.Project {
	p.Columns = append([]service.Column(nil), p.Columns...)
	p.Tasks = append([]service.Task(nil), p.Tasks...)
	p.Members = append([]string(nil), p.Members...)
	return p
}
