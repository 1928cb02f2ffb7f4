package export

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scanmark/internal/assessment"
	"scanmark/internal/resolve"
)

func testAttempt(copy, question string, grade *int) *assessment.Attempt {
	ids := resolve.Identifiers{Copy: copy, Question: question, Attempt: "1"}
	pages := []resolve.Page{{Path: "p.png", IDs: ids, Grade: grade}}
	return assessment.NewAttempt(pages, ids, grade)
}

func gradePtr(v int) *int { return &v }

func TestWriteCopyCSV(t *testing.T) {
	s := assessment.New()
	// Copy 5's attempts arrive question-2-first; the row reorders them.
	s.Add(testAttempt("5", "2", gradePtr(6)))
	s.Add(testAttempt("5", "1", gradePtr(8)))
	s.Add(testAttempt("3", "1", nil))

	var buf strings.Builder
	if err := WriteCopyCSV(&buf, s); err != nil {
		t.Fatalf("WriteCopyCSV: %v", err)
	}
	want := "5,8,6\n3,\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("copy csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteQuestionCSV(t *testing.T) {
	s := assessment.New()
	s.Add(testAttempt("5", "2", gradePtr(6)))
	s.Add(testAttempt("3", "1", gradePtr(4)))
	s.Add(testAttempt("7", "2", nil))

	var buf strings.Builder
	if err := WriteQuestionCSV(&buf, s); err != nil {
		t.Fatalf("WriteQuestionCSV: %v", err)
	}
	// Rows follow first-insertion question order; cells follow append order.
	want := "2,6,\n1,4\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("question csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCopyCSV_Empty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCopyCSV(&buf, assessment.New()); err != nil {
		t.Fatalf("WriteCopyCSV: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty assessment wrote %q", buf.String())
	}
}
