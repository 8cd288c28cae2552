package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"spacequest/internal/commands"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
	"spacequest/internal/testutil"
)

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()
	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}
	return runWithConfig(t, cmd, svc, cfg, args)
}

// runWithConfig parses command flags from args the way the dispatcher does,
// then runs the command.
func runWithConfig(t *testing.T, cmd commands.Command, svc *testutil.FakeService, cfg *config.Config, args []string) (stdout, stderr string, code int) {
	t.Helper()

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	var s service.Service
	if svc != nil {
		s = svc
	}
	code = cmd.Run(context.Background(), cfg, s, fs.Args(), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expedition() service.Project {
	return service.Project{
		ID:   "p1",
		Name: "Mars Expedition",
		Columns: []service.Column{
			{ID: "done", Title: "Done", Order: 3},
			{ID: "todo", Title: "To Do", Order: 1},
			{ID: "doing", Title: "In Progress", Order: 2},
		},
		Tasks: []service.Task{
			{ID: "t1", Title: "Refuel", Status: "todo", XPReward: 20},
			{ID: "t2", Title: "Scan crater", Status: "todo", XPReward: 40},
			{ID: "t3", Title: "Repair antenna", Status: "doing", XPReward: 60},
		},
		Members: []string{"nova", "luna"},
	}
}

func fakeWithExpedition() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddProject(expedition())
	return svc
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "sq 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "sq move --project <p>", "sq kanban", "Common flags:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for projects command
func TestProjectsCommand(t *testing.T) {
	svc := fakeWithExpedition()
	svc.AddProject(service.Project{ID: "p2", Name: "Lunar Base"})

	stdout, stderr, code := runCommand(t, &commands.ProjectsCmd{}, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := "p1          Mars Expedition  (2 members)\np2          Lunar Base  (0 members)\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestProjectsCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := runCommand(t, &commands.ProjectsCmd{}, svc, nil, false)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no expeditions found\n" {
		t.Errorf("expected empty message, got %q", stdout)
	}

	stdout, _, _ = runCommand(t, &commands.ProjectsCmd{}, svc, nil, true)
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestProjectsCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListProjectsErr = errors.New("connection refused")

	_, stderr, code := runCommand(t, &commands.ProjectsCmd{}, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "error: backend error: connection refused\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

// Tests for tasks command
func TestTasksCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "t1", Title: "Log dream", XPReward: 10})
	svc.AddTask(service.Task{ID: "t2", Title: "Old", XPReward: 5, Completed: true})

	stdout, _, code := runCommand(t, &commands.TasksCmd{}, svc, nil, false)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "[ ] t1          Log dream  +10 XP\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}

	stdout, _, _ = runCommand(t, &commands.TasksCmd{}, svc, []string{"--all"}, false)
	expected = "[ ] t1          Log dream  +10 XP\n[x] t2          Old  +5 XP\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestTasksCommand_None(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.TasksCmd{}, testutil.NewFakeService(), nil, false)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected %q, got %q", "no tasks found\n", stdout)
	}
}

// Tests for board command
func TestBoardCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	p := expedition()
	p.Tasks = append(p.Tasks, service.Task{ID: "t4", Title: "Lost probe", Status: "archived", XPReward: 5})
	svc.AddProject(p)

	stdout, stderr, code := runCommand(t, &commands.BoardCmd{}, svc, []string{"mars", "expedition"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := "------------\nTo Do (2)\n------------\n" +
		"    [ ] t1          Refuel  +20 XP\n" +
		"    [ ] t2          Scan crater  +40 XP\n" +
		"------------\nIn Progress (1)\n------------\n" +
		"    [ ] t3          Repair antenna  +60 XP\n" +
		"------------\nDone (0)\n------------\n" +
		"------------\n(unassigned) (1)\n------------\n" +
		"    [ ] t4          Lost probe  +5 XP\n"
	if !strings.HasSuffix(stdout, expected) {
		t.Errorf("expected board to end with %q, got %q", expected, stdout)
	}
	if !strings.Contains(stdout, "Mars Expedition") {
		t.Errorf("expected project heading, got %q", stdout)
	}
}

func TestBoardCommand_NotFound(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.BoardCmd{}, fakeWithExpedition(), []string{"Venus"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: project not found: Venus\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestBoardCommand_Offline(t *testing.T) {
	svc := fakeWithExpedition()
	cfg := &config.Config{Dir: t.TempDir()}

	online, _, code := runWithConfig(t, &commands.BoardCmd{}, svc, cfg, []string{"p1"})
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}

	// The server is gone; the snapshot still renders.
	svc.GetProjectErr = errors.New("connection refused")
	svc.ListProjectsErr = errors.New("connection refused")
	offline, stderr, code := runWithConfig(t, &commands.BoardCmd{}, svc, cfg, []string{"--offline", "Mars Expedition"})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if offline != online {
		t.Errorf("offline board differs:\nonline:\n%s\noffline:\n%s", online, offline)
	}
	if !strings.Contains(stderr, "cached ") {
		t.Errorf("expected cache timestamp on stderr, got %q", stderr)
	}
}

func TestBoardCommand_DeletedProjectDropsSnapshot(t *testing.T) {
	svc := fakeWithExpedition()
	cfg := &config.Config{Dir: t.TempDir()}

	if _, _, code := runWithConfig(t, &commands.BoardCmd{}, svc, cfg, []string{"p1"}); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}

	svc.GetProjectErr = fmt.Errorf("project %w: p1", service.ErrNotFound)
	_, stderr, code := runWithConfig(t, &commands.BoardCmd{}, svc, cfg, []string{"p1"})
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: project not found: p1\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	_, stderr, code = runWithConfig(t, &commands.BoardCmd{}, svc, cfg, []string{"--offline", "p1"})
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "no cached board") {
		t.Errorf("expected snapshot to be gone, got %q", stderr)
	}
}

func TestBoardCommand_OfflineNeedsNoSession(t *testing.T) {
	online := &commands.BoardCmd{}
	if !online.NeedsAuth() {
		t.Error("online board should need a session")
	}
	offline := &commands.BoardCmd{}
	offline.SetOffline(true)
	if offline.NeedsAuth() {
		t.Error("offline board should not need a session")
	}
}

func TestBoardCommand_OfflineMiss(t *testing.T) {
	cmd := &commands.BoardCmd{}
	cmd.SetOffline(true)

	_, stderr, code := runCommand(t, cmd, fakeWithExpedition(), []string{"p1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "no cached board") {
		t.Errorf("expected cache miss error, got %q", stderr)
	}
}

func TestBoardCommand_ProjectRequired(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.BoardCmd{}, fakeWithExpedition(), nil, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: project required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for add command
func TestAddCommand_Personal(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"--xp", "50", "--due", "2026-11-02", "Chart", "nebula"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok t101\n" {
		t.Errorf("expected %q, got %q", "ok t101\n", stdout)
	}
	tasks, _ := svc.ListTasks(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Chart nebula" || tasks[0].XPReward != 50 {
		t.Errorf("unexpected task %+v", tasks[0])
	}
	if tasks[0].DueDate == nil || tasks[0].DueDate.Format("2006-01-02") != "2026-11-02" {
		t.Errorf("unexpected due date %v", tasks[0].DueDate)
	}
}

func TestAddCommand_ProjectColumn(t *testing.T) {
	svc := fakeWithExpedition()

	_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"--project", "Mars Expedition", "--status", "in progress", "Plant", "flag"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	p, _ := svc.Project("p1")
	last := p.Tasks[len(p.Tasks)-1]
	if last.Title != "Plant flag" || last.Status != "doing" || last.ProjectID != "p1" {
		t.Errorf("unexpected task %+v", last)
	}
}

func TestAddCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no title", nil, "error: invalid input: title required\n"},
		{"blank title", []string{"  "}, "error: invalid input: title required\n"},
		{"negative xp", []string{"--xp", "-5", "x"}, "error: invalid input: xp reward must not be negative\n"},
		{"bad due", []string{"--due", "tomorrow", "x"}, "error: invalid due date: tomorrow (want YYYY-MM-DD)\n"},
		{"status without project", []string{"--status", "todo", "x"}, "error: --status requires --project\n"},
		{"unknown column", []string{"--project", "p1", "--status", "Backlog", "x"}, "error: column not found: Backlog\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, &commands.AddCmd{}, fakeWithExpedition(), tt.args, false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

// Tests for edit command
func TestEditCommand(t *testing.T) {
	svc := fakeWithExpedition()

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, svc, []string{"--title", "Refuel tanks", "--xp", "25", "t1"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := "[ ] t1          Refuel tanks  +25 XP\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestEditCommand_NothingToUpdate(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.EditCmd{}, fakeWithExpedition(), []string{"t1"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid input: nothing to update\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand_UnknownTask(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.EditCmd{}, fakeWithExpedition(), []string{"--desc", "x", "t9"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task not found: t9\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for move command
func TestMoveCommand(t *testing.T) {
	svc := fakeWithExpedition()

	stdout, stderr, code := runCommand(t, &commands.MoveCmd{}, svc, []string{"--project", "Mars Expedition", "t1", "In", "Progress"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stdout, `Objective moved: "Refuel" moved to In Progress`) {
		t.Errorf("expected success notification, got %q", stdout)
	}
	moves := svc.Moves()
	if len(moves) != 1 || moves[0] != (testutil.Move{TaskID: "t1", Status: "doing"}) {
		t.Errorf("unexpected moves %+v", moves)
	}
	p, _ := svc.Project("p1")
	if p.Tasks[0].Status != "doing" {
		t.Errorf("expected server status doing, got %q", p.Tasks[0].Status)
	}
}

func TestMoveCommand_FailureReverts(t *testing.T) {
	svc := fakeWithExpedition()
	svc.MoveTaskErr = fmt.Errorf("%w: column locked", service.ErrRejected)

	stdout, stderr, code := runCommand(t, &commands.MoveCmd{}, svc, []string{"-p", "p1", "t2", "done"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: rejected by server: column locked (back in To Do)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if stdout != "" {
		t.Errorf("failure should only be reported on stderr, got %q", stdout)
	}
}

func TestMoveCommand_NoRevert(t *testing.T) {
	svc := fakeWithExpedition()
	svc.MoveTaskErr = errors.New("gateway timeout")
	cmd := &commands.MoveCmd{}

	stdout, stderr, code := runCommand(t, cmd, svc, []string{"--project", "p1", "--no-revert", "t2", "done"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("failure should only be reported on stderr, got %q", stdout)
	}
	if stderr != "error: backend error: gateway timeout\n" {
		t.Errorf("expected no revert note, got %q", stderr)
	}
}

func TestMoveCommand_SameColumn(t *testing.T) {
	svc := fakeWithExpedition()

	stdout, _, code := runCommand(t, &commands.MoveCmd{}, svc, []string{"--project", "p1", "t1", "todo"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "already in To Do\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if len(svc.Moves()) != 0 {
		t.Errorf("expected no move request, got %+v", svc.Moves())
	}
}

func TestMoveCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no project", []string{"t1", "done"}, "error: --project required\n"},
		{"missing column", []string{"--project", "p1", "t1"}, "error: task id and column required\n"},
		{"unknown column", []string{"--project", "p1", "t1", "Backlog"}, "error: column not found: Backlog\n"},
		{"unknown task", []string{"--project", "p1", "t9", "done"}, "error: task t9 is not on Mars Expedition\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, &commands.MoveCmd{}, fakeWithExpedition(), tt.args, false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

// Tests for done command
func TestDoneCommand_LevelUp(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "t1", Title: "Launch", XPReward: 600, CreditReward: 5})

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"t1"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{"completed t1  +600 XP +5 cr", "Level up! 1 -> 2", "Level 2  100/915 XP"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in %q", want, stdout)
		}
	}
}

func TestDoneCommand_Twice(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "t1", Title: "Launch", XPReward: 10})

	runCommand(t, &commands.DoneCmd{}, svc, []string{"t1"}, true)
	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"#t1"}, true)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: rejected by server: task already completed\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_Quiet(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "t1", Title: "Launch", XPReward: 10})

	stdout, _, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"t1"}, true)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output, got %q", stdout)
	}
}

func TestDoneCommand_TaskRequired(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.DoneCmd{}, testutil.NewFakeService(), nil, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for status command
func TestStatusCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetProfile(service.Profile{Username: "nova", XP: 600, Level: 2, Credits: 40})
	svc.SetLeaderboard([]service.LeaderboardEntry{
		{Position: 1, Username: "luna", Level: 3, XP: 2000},
		{Position: 2, Username: "nova", Level: 2, XP: 600},
	})

	stdout, stderr, code := runCommand(t, &commands.StatusCmd{}, svc, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{"nova", "Level 2  100/915 XP", "815 to next", "Credits: 40", "Badges: none", "Rank: #2 of 2"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in %q", want, stdout)
		}
	}
}

func TestStatusCommand_Badges(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetProfile(service.Profile{Username: "nova", XP: 600})
	cfg := &config.Config{Dir: t.TempDir(), Badges: []config.Badge{
		{ID: "cadet", Name: "Cadet", MinLevel: 1},
		{ID: "pilot", Name: "Pilot", MinLevel: 2},
		{ID: "ace", Name: "Ace", MinLevel: 9},
	}}

	stdout, _, code := runWithConfig(t, &commands.StatusCmd{}, svc, cfg, nil)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "Badges: Cadet, Pilot") {
		t.Errorf("expected unlocked badges, got %q", stdout)
	}
}

func TestStatusCommand_UnauthorizedDropsToken(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ProfileErr = fmt.Errorf("%w: session expired", service.ErrUnauthorized)
	cfg := &config.Config{Dir: t.TempDir()}
	if err := cfg.SaveToken(&oauth2.Token{AccessToken: "stale"}); err != nil {
		t.Fatalf("save token: %v", err)
	}

	_, stderr, code := runWithConfig(t, &commands.StatusCmd{}, svc, cfg, nil)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: session expired (run: sq login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, err := os.Stat(cfg.TokenPath()); !os.IsNotExist(err) {
		t.Errorf("expected token to be removed, stat err %v", err)
	}
}

// Tests for leaderboard command
func TestLeaderboardCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetLeaderboard([]service.LeaderboardEntry{
		{Position: 1, Username: "luna", Level: 3, XP: 2000},
		{Position: 2, Username: "nova", Level: 2, XP: 600},
	})

	stdout, _, code := runCommand(t, &commands.LeaderboardCmd{}, svc, nil, false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "   1  luna") {
		t.Errorf("expected luna first, got %q", stdout)
	}
	if !strings.Contains(stdout, "*  2  nova") {
		t.Errorf("expected nova marked, got %q", stdout)
	}

	stdout, _, _ = runCommand(t, &commands.LeaderboardCmd{}, svc, []string{"--limit", "1"}, false)
	if strings.Contains(stdout, "nova") {
		t.Errorf("expected limit to cut nova, got %q", stdout)
	}
}

func TestLeaderboardCommand_ProfileFailureStillPrints(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ProfileErr = errors.New("flaky")
	svc.SetLeaderboard([]service.LeaderboardEntry{{Position: 1, Username: "nova", Level: 1, XP: 10}})

	stdout, _, code := runCommand(t, &commands.LeaderboardCmd{}, svc, nil, false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if strings.Contains(stdout, "*") {
		t.Errorf("expected no marker without a profile, got %q", stdout)
	}
}

// Tests for shop, buy and claim commands
func TestShopCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddShopItem(service.ShopItem{ID: "boost", Name: "XP Boost", Kind: "powerup", Price: 25})
	svc.AddShopItem(service.ShopItem{ID: "skin", Name: "Red Hull", Kind: "skin", Price: 100, Owned: true})

	stdout, _, code := runCommand(t, &commands.ShopCmd{}, svc, nil, false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "boost       XP Boost              powerup   25 cr\n" +
		"skin        Red Hull              skin      100 cr  (owned)\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestBuyCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetProfile(service.Profile{Username: "nova", Credits: 40})
	svc.AddShopItem(service.ShopItem{ID: "boost", Name: "XP Boost", Kind: "powerup", Price: 25})

	stdout, _, code := runCommand(t, &commands.BuyCmd{}, svc, []string{"boost"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok boost  15 cr left\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	_, stderr, code := runCommand(t, &commands.BuyCmd{}, svc, []string{"boost"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: rejected by server: item already owned\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestBuyCommand_NotEnoughCredits(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddShopItem(service.ShopItem{ID: "boost", Name: "XP Boost", Price: 25})

	_, stderr, code := runCommand(t, &commands.BuyCmd{}, svc, []string{"boost"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: rejected by server: not enough credits\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestClaimCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddReward(service.RewardResult{RewardID: "r1", XPAwarded: 100, CreditsAwarded: 5})

	stdout, _, code := runCommand(t, &commands.ClaimCmd{}, svc, []string{"r1"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok r1  +100 XP +5 cr\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	_, stderr, code := runCommand(t, &commands.ClaimCmd{}, svc, []string{"r1"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: reward not found: r1\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for member command
func TestMemberCommand(t *testing.T) {
	svc := fakeWithExpedition()
	cmd := &commands.MemberCmd{}

	stdout, _, code := runCommand(t, cmd, svc, []string{"--project", "p1", "orion"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	_, stderr, code := runCommand(t, cmd, svc, []string{"--project", "p1", "luna"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: rejected by server: luna is already a member\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestMemberCommand_ProjectRequired(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.MemberCmd{}, fakeWithExpedition(), []string{"orion"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: --project required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestKanbanCommand_ProjectRequired(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.KanbanCmd{}, fakeWithExpedition(), nil, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: project required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRegistry_AliasesAndCase(t *testing.T) {
	for name, want := range map[string]string{
		"mv":     "move",
		"MOVE":   "move",
		"create": "add",
		"top":    "leaderboard",
		"me":     "status",
	} {
		cmd, ok := commands.DefaultRegistry.Find(name)
		if !ok {
			t.Errorf("%s: not registered", name)
			continue
		}
		if cmd.Name() != want {
			t.Errorf("%s: expected %s, got %s", name, want, cmd.Name())
		}
	}
}
