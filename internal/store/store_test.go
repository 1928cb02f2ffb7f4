package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanmark/internal/assessment"
	"scanmark/internal/resolve"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "scanmark.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func storedAttempt(copy, question, attemptID, path string, grade *int) *assessment.Attempt {
	ids := resolve.Identifiers{Copy: copy, Question: question, Attempt: attemptID}
	pages := []resolve.Page{{Path: path, Width: 800, Height: 1000, Rotation: 90, IDs: ids, Grade: grade}}
	return assessment.NewAttempt(pages, ids, grade)
}

func TestStore_RunRoundTrip(t *testing.T) {
	s := testStore(t)

	runID, err := s.BeginRun(time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	grade := 8
	require.NoError(t, s.RecordAttempt(runID, 0, storedAttempt("12", "3", "1", "a.png", &grade)))
	require.NoError(t, s.RecordAttempt(runID, 1, storedAttempt("12", "4", "1", "b.png", nil)))
	require.NoError(t, s.RecordAttempt(runID, 2, storedAttempt("", "3", "1", "c.png", nil)))
	require.NoError(t, s.FinishRun(runID, time.Now()))

	loaded, err := s.LoadAssessment(runID)
	require.NoError(t, err)

	attempts := loaded.Attempts()
	require.Len(t, attempts, 3)
	assert.Equal(t, "12", attempts[0].IDs().Copy)
	g, ok := attempts[0].Grade()
	require.True(t, ok)
	assert.Equal(t, 8, g)
	assert.True(t, attempts[1].Ungraded())
	assert.True(t, attempts[2].MissingIdentifiers())

	// Index semantics survive persistence.
	assert.Equal(t, 1, loaded.CopyCount())
	assert.Equal(t, 2, loaded.QuestionCount())

	pages := attempts[0].Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, "a.png", pages[0].Path)
	assert.Equal(t, 90, pages[0].Rotation)
}

func TestStore_LatestRunID(t *testing.T) {
	s := testStore(t)

	id, err := s.LatestRunID()
	require.NoError(t, err)
	assert.Empty(t, id, "empty store has no latest run")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_, err = s.BeginRun(base)
	require.NoError(t, err)
	second, err := s.BeginRun(base.Add(time.Hour))
	require.NoError(t, err)

	id, err = s.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, second, id)
}

func TestStore_Duplicates(t *testing.T) {
	s := testStore(t)
	runID, err := s.BeginRun(time.Now())
	require.NoError(t, err)

	// Same triple decoded from two distinct source files.
	require.NoError(t, s.RecordAttempt(runID, 0, storedAttempt("5", "1", "1", "a.png", nil)))
	require.NoError(t, s.RecordAttempt(runID, 1, storedAttempt("5", "1", "1", "b.png", nil)))
	// Unique triple.
	require.NoError(t, s.RecordAttempt(runID, 2, storedAttempt("6", "1", "1", "c.png", nil)))
	// Incomplete triples never count as duplicates of each other.
	require.NoError(t, s.RecordAttempt(runID, 3, storedAttempt("", "", "", "d.png", nil)))
	require.NoError(t, s.RecordAttempt(runID, 4, storedAttempt("", "", "", "e.png", nil)))

	dupes, err := s.Duplicates(runID)
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.Equal(t, resolve.Identifiers{Copy: "5", Question: "1", Attempt: "1"}, dupes[0].IDs)
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, dupes[0].Paths)
}

func TestStore_DuplicatePathsWithCommas(t *testing.T) {
	s := testStore(t)
	runID, err := s.BeginRun(time.Now())
	require.NoError(t, err)

	// Commas are legal in paths and must survive the round trip intact.
	first := "scans, batch 1/a.png"
	second := "scans, batch 1/b.png"
	require.NoError(t, s.RecordAttempt(runID, 0, storedAttempt("5", "1", "1", first, nil)))
	require.NoError(t, s.RecordAttempt(runID, 1, storedAttempt("5", "1", "1", second, nil)))

	dupes, err := s.Duplicates(runID)
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.ElementsMatch(t, []string{first, second}, dupes[0].Paths)
}

func TestStore_DuplicatesScopedToRun(t *testing.T) {
	s := testStore(t)

	first, err := s.BeginRun(time.Now())
	require.NoError(t, err)
	require.NoError(t, s.RecordAttempt(first, 0, storedAttempt("5", "1", "1", "a.png", nil)))

	second, err := s.BeginRun(time.Now())
	require.NoError(t, err)
	require.NoError(t, s.RecordAttempt(second, 0, storedAttempt("5", "1", "1", "b.png", nil)))

	// The triple repeats across runs but within neither.
	dupes, err := s.Duplicates(first)
	require.NoError(t, err)
	assert.Empty(t, dupes)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanmark.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	runID, err := s.BeginRun(time.Now())
	require.NoError(t, err)
	require.NoError(t, s.RecordAttempt(runID, 0, storedAttempt("1", "2", "3", "a.png", nil)))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	latest, err := s.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, runID, latest)

	loaded, err := s.LoadAssessment(runID)
	require.NoError(t, err)
	assert.Len(t, loaded.Attempts(), 1)
}
