package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"scanmark/internal/assessment"
)

// WriteCopyCSV writes one row per copy: the copy id followed by one grade
// per attempt, attempts ordered by ascending question id (lexicographic, as
// the ids are typed). Unresolved grades render as empty cells.
func WriteCopyCSV(w io.Writer, a *assessment.Assessment) error {
	cw := csv.NewWriter(w)
	for _, group := range a.ByCopy() {
		attempts := append([]*assessment.Attempt(nil), group.Attempts...)
		sort.SliceStable(attempts, func(i, j int) bool {
			return attempts[i].IDs().Question < attempts[j].IDs().Question
		})
		if err := cw.Write(row(group.Key, attempts)); err != nil {
			return fmt.Errorf("write copy row %s: %w", group.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteQuestionCSV writes one row per question: the question id followed by
// one grade per attempt in append order.
func WriteQuestionCSV(w io.Writer, a *assessment.Assessment) error {
	cw := csv.NewWriter(w)
	for _, group := range a.ByQuestion() {
		if err := cw.Write(row(group.Key, group.Attempts)); err != nil {
			return fmt.Errorf("write question row %s: %w", group.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(key string, attempts []*assessment.Attempt) []string {
	r := make([]string, 0, len(attempts)+1)
	r = append(r, key)
	for _, a := range attempts {
		if grade, ok := a.Grade(); ok {
			r = append(r, strconv.Itoa(grade))
		} else {
			r = append(r, "")
		}
	}
	return r
}
