package grouping

import (
	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
)

// Row is one level of the report tree. Days holds seconds per column.
type Row struct {
	ID       string
	Days     []int64
	Children []*Row

	index map[string]int
}

func newRow(id string, columns int) *Row {
	return &Row{ID: id, Days: make([]int64, columns), index: make(map[string]int)}
}

func (r *Row) child(id string, columns int) *Row {
	if i, ok := r.index[id]; ok {
		return r.Children[i]
	}
	c := newRow(id, columns)
	r.Children = append(r.Children, c)
	r.index[id] = len(r.Children) - 1
	return c
}

// Total is the row's sum across all columns.
func (r *Row) Total() int64 {
	var sum int64
	for _, v := range r.Days {
		sum += v
	}
	return sum
}

// Sheet is the user -> project -> task table for a fixed day range.
type Sheet struct {
	Range   calendar.Range
	Columns []string
	Users   []*Row
	Totals  []int64
}

func (s Sheet) GrandTotal() int64 {
	var sum int64
	for _, v := range s.Totals {
		sum += v
	}
	return sum
}

// BuildSheet places every record of rng into its day column at the user,
// project and task level. Records outside rng are left out.
func BuildSheet(records []model.TimeRecord, rng calendar.Range) Sheet {
	columns := rng.Keys()
	col := make(map[string]int, len(columns))
	for i, k := range columns {
		col[k] = i
	}
	root := newRow("", len(columns))
	for _, rec := range records {
		i, ok := col[rec.Day()]
		if !ok {
			continue
		}
		secs := rec.Seconds()
		user := root.child(rec.UserID, len(columns))
		project := user.child(rec.ProjectKey(), len(columns))
		task := project.child(rec.TaskKey(), len(columns))

		root.Days[i] += secs
		user.Days[i] += secs
		project.Days[i] += secs
		task.Days[i] += secs
	}
	return Sheet{
		Range:   rng,
		Columns: columns,
		Users:   root.Children,
		Totals:  root.Days,
	}
}

// Flatten returns the project -> task rows of every user in display order
// with their depth (0 user, 1 project, 2 task).
func (s Sheet) Flatten() []FlatRow {
	out := make([]FlatRow, 0)
	var walk func(r *Row, depth int, path []string)
	walk = func(r *Row, depth int, path []string) {
		p := append(append([]string(nil), path...), r.ID)
		out = append(out, FlatRow{Row: r, Depth: depth, Path: p})
		for _, c := range r.Children {
			walk(c, depth+1, p)
		}
	}
	for _, u := range s.Users {
		walk(u, 0, nil)
	}
	return out
}

type FlatRow struct {
	Row   *Row
	Depth int
	Path  []string
}
