// Package notify fans a change record out to its sinks: the console log
// and the CSV record log always, email only when the change's category
// toggle is on at routing time.
package notify

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/misiektoja/github-monitor/internal/diff"
)

// csvHeader is written once, when the record log is created or empty.
var csvHeader = []string{"Date", "Type", "Name", "Old", "New"}

// dateLayout matches the record log's Date column.
const dateLayout = "2006-01-02 15:04:05"

// Recorder appends change rows to a CSV record log. Non-numeric fields
// are always quoted so downstream spreadsheet imports keep logins like
// "0x1f" as text.
type Recorder struct {
	path string
	loc  *time.Location
}

// NewRecorder returns a recorder writing to path with timestamps rendered
// in loc.
func NewRecorder(path string, loc *time.Location) *Recorder {
	if loc == nil {
		loc = time.Local
	}
	return &Recorder{path: path, loc: loc}
}

// Record writes the rows for one change: the main row, then one row per
// member movement for set changes.
func (r *Recorder) Record(now time.Time, ch diff.Change) error {
	rows := [][]string{{
		now.In(r.loc).Format(dateLayout),
		string(ch.Label),
		ch.Name,
		ch.Old,
		ch.New,
	}}
	for _, m := range ch.Removed {
		rows = append(rows, []string{
			now.In(r.loc).Format(dateLayout),
			string(ch.PerItem.Removed),
			ch.Name,
			m,
			"",
		})
	}
	for _, m := range ch.Added {
		rows = append(rows, []string{
			now.In(r.loc).Format(dateLayout),
			string(ch.PerItem.Added),
			ch.Name,
			"",
			m,
		})
	}
	return r.append(rows)
}

func (r *Recorder) append(rows [][]string) error {
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open record log: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	var b strings.Builder
	if st.Size() == 0 {
		writeRow(&b, csvHeader)
	}
	for _, row := range rows {
		writeRow(&b, row)
	}
	_, err = f.WriteString(b.String())
	return err
}

func writeRow(b *strings.Builder, row []string) {
	for i, field := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteField(field))
	}
	b.WriteString("\r\n")
}

// quoteField quotes every non-numeric field; embedded quotes double.
func quoteField(s string) string {
	if isNumeric(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if (r == '-' || r == '+') && i == 0 && len(s) > 1 {
			continue
		}
		return false
	}
	return true
}
