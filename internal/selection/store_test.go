package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"voicetask/internal/domain"
)

type memoryPrefs struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	putErr error
}

func newMemoryPrefs() *memoryPrefs {
	return &memoryPrefs{values: map[string]string{}}
}

func (m *memoryPrefs) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryPrefs) Put(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.values[key] = value
	return nil
}

func (m *memoryPrefs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type fakeCatalog struct {
	sprints    []domain.Sprint
	groups     []domain.Group
	sprintErr  error
	groupErr   error
	fetchCount int
}

func (f *fakeCatalog) Sprints(context.Context) ([]domain.Sprint, error) {
	f.fetchCount++
	return f.sprints, f.sprintErr
}

func (f *fakeCatalog) Groups(context.Context) ([]domain.Group, error) {
	return f.groups, f.groupErr
}

var testRoster = []domain.Assignee{
	{ID: "43918785", Name: "Peter Ippolito", Email: "peter@example.com"},
	{ID: "43919958", Name: "Andrea Penate", Email: "andrea@example.com"},
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// weekThree is a Wednesday in ISO week 3 of 2026.
var weekThree = time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC)

func TestSprintForWeek(t *testing.T) {
	t.Parallel()

	catalog := []domain.Sprint{{ID: "s1", Name: "Q1-1:4"}}
	if sprint, ok := SprintForWeek(catalog, 3); !ok || sprint.ID != "s1" {
		t.Fatalf("expected s1 for week 3, got %+v ok=%v", sprint, ok)
	}
	if _, ok := SprintForWeek(catalog, 10); ok {
		t.Fatalf("expected no sprint for week 10")
	}
}

func TestSprintForWeekBoundariesAndOrder(t *testing.T) {
	t.Parallel()

	catalog := []domain.Sprint{
		{ID: "x", Name: "Backlog"},
		{ID: "a", Name: "Sprint Q2-14:17 (Apr)"},
		{ID: "b", Name: "Q2-17:20"},
	}
	tests := map[int]string{13: "", 14: "a", 17: "a", 18: "b", 20: "b", 21: ""}
	for week, want := range tests {
		sprint, ok := SprintForWeek(catalog, week)
		if want == "" {
			if ok {
				t.Fatalf("week %d: expected no match, got %s", week, sprint.ID)
			}
			continue
		}
		if !ok || sprint.ID != want {
			t.Fatalf("week %d: got %q want %q", week, sprint.ID, want)
		}
	}
}

func TestCurrentWeekIsISO(t *testing.T) {
	t.Parallel()

	// 2027-01-01 is a Friday and belongs to ISO week 53 of 2026.
	if got := CurrentWeek(time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC)); got != 53 {
		t.Fatalf("expected week 53, got %d", got)
	}
	if got := CurrentWeek(weekThree); got != 3 {
		t.Fatalf("expected week 3, got %d", got)
	}
}

func TestLoadCatalogsAutoSelectsSprint(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		sprints: []domain.Sprint{{ID: "s0", Name: "Q4-49:52"}, {ID: "s1", Name: "Q1-1:4"}},
		groups:  []domain.Group{{ID: "g1", Title: "Backlog"}},
	}
	store := NewStore(newMemoryPrefs(), catalog, testRoster, quietLogger())
	store.now = func() time.Time { return weekThree }

	if err := store.LoadCatalogs(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	current := store.Current()
	if current.Sprint == nil || current.Sprint.ID != "s1" {
		t.Fatalf("expected s1 auto-selected, got %+v", current.Sprint)
	}
	if current.Group != nil {
		t.Fatalf("groups must not be auto-selected")
	}
	if len(store.Groups()) != 1 || len(store.Sprints()) != 2 {
		t.Fatalf("expected catalogs to be cached")
	}
}

func TestLoadCatalogsNoMatchingSprint(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{sprints: []domain.Sprint{{ID: "s1", Name: "Q1-1:4"}}}
	store := NewStore(nil, catalog, testRoster, quietLogger())
	store.now = func() time.Time { return time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) }

	if err := store.LoadCatalogs(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if store.Current().Sprint != nil {
		t.Fatalf("expected no sprint outside the encoded range")
	}
	if err := store.SelectSprint("s1"); err != nil {
		t.Fatalf("manual sprint selection failed: %v", err)
	}
	if store.Current().Sprint.ID != "s1" {
		t.Fatalf("expected manual sprint selection")
	}
}

func TestLoadCatalogsKeepsGroupsWhenSprintsFail(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		sprintErr: errors.New("board down"),
		groups:    []domain.Group{{ID: "g1", Title: "Backlog"}},
	}
	store := NewStore(nil, catalog, testRoster, quietLogger())

	err := store.LoadCatalogs(context.Background())
	if err == nil {
		t.Fatalf("expected sprint error")
	}
	if len(store.Groups()) != 1 {
		t.Fatalf("expected groups loaded despite sprint failure")
	}
}

func TestSelectionsPersistAndRestore(t *testing.T) {
	t.Parallel()

	prefs := newMemoryPrefs()
	catalog := &fakeCatalog{groups: []domain.Group{{ID: "g1", Title: "Backlog"}}}
	ctx := context.Background()

	first := NewStore(prefs, catalog, testRoster, quietLogger())
	if err := first.LoadCatalogs(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := first.SelectAssignee(ctx, "43919958"); err != nil {
		t.Fatalf("select assignee failed: %v", err)
	}
	if err := first.SelectGroup(ctx, "g1"); err != nil {
		t.Fatalf("select group failed: %v", err)
	}
	if _, ok := prefs.values[AssigneeKey]; !ok {
		t.Fatalf("expected assignee written immediately")
	}

	second := NewStore(prefs, catalog, testRoster, quietLogger())
	second.Restore(ctx)
	current := second.Current()
	if current.Assignee == nil || current.Assignee.Name != "Andrea Penate" {
		t.Fatalf("expected restored assignee, got %+v", current.Assignee)
	}
	if current.Group == nil || current.Group.Title != "Backlog" {
		t.Fatalf("expected restored group, got %+v", current.Group)
	}
	if current.Sprint != nil {
		t.Fatalf("sprint must never be restored")
	}
}

func TestRestoreIgnoresUnreadableEntries(t *testing.T) {
	t.Parallel()

	prefs := newMemoryPrefs()
	prefs.values[AssigneeKey] = "{not json"
	prefs.values[GroupKey] = `{"id":"g1","title":"Backlog"}`

	store := NewStore(prefs, &fakeCatalog{}, testRoster, quietLogger())
	store.Restore(context.Background())
	current := store.Current()
	if current.Assignee != nil {
		t.Fatalf("expected corrupt assignee to be ignored")
	}
	if _, ok := prefs.values[AssigneeKey]; ok {
		t.Fatalf("expected corrupt assignee to be removed from preferences")
	}
	if _, ok := prefs.values[GroupKey]; !ok {
		t.Fatalf("readable group must stay saved")
	}
	if current.Group == nil || current.Group.ID != "g1" {
		t.Fatalf("expected group restored, got %+v", current.Group)
	}

	prefs.getErr = errors.New("disk gone")
	store.Restore(context.Background())
	if store.Current().Group != nil {
		t.Fatalf("expected restore failure to clear selections")
	}
}

func TestSelectUnknownIDs(t *testing.T) {
	t.Parallel()

	store := NewStore(newMemoryPrefs(), &fakeCatalog{}, testRoster, quietLogger())
	ctx := context.Background()
	if err := store.SelectAssignee(ctx, "nobody"); !errors.Is(err, ErrUnknownAssignee) {
		t.Fatalf("expected unknown assignee, got %v", err)
	}
	if err := store.SelectGroup(ctx, "nowhere"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected unknown group, got %v", err)
	}
	if err := store.SelectSprint("never"); !errors.Is(err, ErrUnknownSprint) {
		t.Fatalf("expected unknown sprint, got %v", err)
	}
}

func TestSelectKeepsChoiceWhenSaveFails(t *testing.T) {
	t.Parallel()

	prefs := newMemoryPrefs()
	prefs.putErr = errors.New("read-only")
	store := NewStore(prefs, &fakeCatalog{}, testRoster, quietLogger())

	if err := store.SelectAssignee(context.Background(), "43918785"); !errors.Is(err, ErrNotSaved) {
		t.Fatalf("expected not-saved error, got %v", err)
	}
	if store.Current().Assignee == nil {
		t.Fatalf("expected in-memory selection despite save failure")
	}

	store.groups = []domain.Group{{ID: "g1", Title: "Backlog"}}
	if err := store.SelectGroup(context.Background(), "g1"); !errors.Is(err, ErrNotSaved) {
		t.Fatalf("expected not-saved error, got %v", err)
	}
	if store.Current().Group == nil {
		t.Fatalf("expected in-memory group despite save failure")
	}
}

func TestCurrentReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, &fakeCatalog{}, testRoster, quietLogger())
	_ = store.SelectAssignee(context.Background(), "43918785")

	current := store.Current()
	current.Assignee.Name = "mutated"
	if store.Current().Assignee.Name != "Peter Ippolito" {
		t.Fatalf("Current must not expose internal state")
	}
}

func TestDefaultRoster(t *testing.T) {
	t.Parallel()

	roster := DefaultRoster()
	if len(roster) != 23 {
		t.Fatalf("expected 23 assignees, got %d", len(roster))
	}
	seen := map[string]bool{}
	for _, a := range roster {
		if a.ID == "" || a.Name == "" || a.Email == "" {
			t.Fatalf("incomplete roster entry: %+v", a)
		}
		if seen[a.ID] {
			t.Fatalf("duplicate id %s", a.ID)
		}
		seen[a.ID] = true
	}
	if roster[0].ID != "43918785" {
		t.Fatalf("unexpected first entry: %+v", roster[0])
	}
}
