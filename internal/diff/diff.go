package diff

import (
	"sort"
	"strconv"
	"time"

	"github.com/misiektoja/github-monitor/internal/gateway"
	"github.com/misiektoja/github-monitor/internal/snapshot"
)

// InstantLayout renders timestamps in change records.
const InstantLayout = "Mon, 02 Jan 2006, 15:04:05"

// Scalar compares two strings and returns a change, or nil when equal.
func Scalar(cat Category, label Kind, name, old, new string) *Change {
	if old == new {
		return nil
	}
	return &Change{Kind: cat, Label: label, Name: name, Old: old, New: new}
}

// Number compares two ints and returns a change, or nil when equal.
func Number(cat Category, label Kind, name string, old, new int) *Change {
	if old == new {
		return nil
	}
	return &Change{
		Kind:  cat,
		Label: label,
		Name:  name,
		Old:   strconv.Itoa(old),
		New:   strconv.Itoa(new),
		Delta: new - old,
	}
}

// Bool compares two booleans rendered through render, or nil when equal.
func Bool(cat Category, label Kind, name string, old, new bool, render func(bool) string) *Change {
	if old == new {
		return nil
	}
	return &Change{Kind: cat, Label: label, Name: name, Old: render(old), New: render(new)}
}

// Instant compares two timestamps with time.Time.Equal, so the same moment
// observed in two locations never reads as a change.
func Instant(cat Category, label Kind, name string, old, new time.Time) *Change {
	if old.Equal(new) {
		return nil
	}
	return &Change{
		Kind:  cat,
		Label: label,
		Name:  name,
		Old:   old.Format(InstantLayout),
		New:   new.Format(InstantLayout),
	}
}

// SetInput is one set-valued field to diff: the previously stored members
// and count against the freshly fetched list and its authoritative count.
type SetInput struct {
	Kinds    SetKinds
	Name     string
	OldSet   snapshot.Set
	OldCount int
	Fetched  []string
	NewCount int
}

// Set diffs membership and count together.
//
// An empty fetched list while the authoritative count is positive is
// treated as a truncated or failed listing: the old set is retained and no
// change is produced. Otherwise a count change yields one record labeled
// Kinds.Count with the member movements attached; identical counts with
// different membership yield one record labeled Kinds.List. The returned
// set is what the snapshot should store for the next cycle.
func Set(cat Category, in SetInput) (*Change, snapshot.Set) {
	if len(in.Fetched) == 0 && in.NewCount > 0 {
		return nil, in.OldSet
	}

	newSet := snapshot.NewSet(in.Fetched)
	added := members(newSet, in.OldSet)
	removed := members(in.OldSet, newSet)

	if in.NewCount == in.OldCount && len(added) == 0 && len(removed) == 0 {
		return nil, newSet
	}

	ch := &Change{
		Kind:    cat,
		Name:    in.Name,
		Old:     strconv.Itoa(in.OldCount),
		New:     strconv.Itoa(in.NewCount),
		Removed: removed,
		Added:   added,
		Delta:   in.NewCount - in.OldCount,
		PerItem: in.Kinds,
	}
	if in.NewCount != in.OldCount {
		ch.Label = in.Kinds.Count
	} else {
		ch.Label = in.Kinds.List
	}
	return ch, newSet
}

// members returns the elements of a not present in b, sorted.
func members(a, b snapshot.Set) []string {
	var out []string
	for it := range a {
		if !b.Contains(it) {
			out = append(out, it)
		}
	}
	sort.Strings(out)
	return out
}

// Events walks the fetched feed (newest first) against the previous window
// and returns the not-yet-seen events in chronological order, plus the
// window to store. An event counts as new only when its id is absent from
// the previous window AND its timestamp is after the previous mark; either
// guard alone misfires when the feed reorders or an id ages out of the
// window. The mark advances whenever the newest fetched id differs from
// the stored one and is newer than the mark, even if every event was
// filtered out, so nothing is ever emitted twice. A feed that regressed
// (newest event deleted upstream) leaves the mark in place; the deleted
// event stays suppressed if it later reappears.
func Events(prev snapshot.EventWindow, fetched []gateway.Event, keep func(gateway.Event) bool) ([]Change, snapshot.EventWindow) {
	if len(fetched) == 0 {
		return nil, prev
	}

	next := snapshot.EventWindow{
		Size:   prev.Size,
		IDs:    make([]string, 0, len(fetched)),
		LastID: prev.LastID,
		LastTS: prev.LastTS,
	}
	for _, ev := range fetched {
		next.IDs = append(next.IDs, ev.ID)
	}
	if fetched[0].ID != prev.LastID && fetched[0].CreatedAt.After(prev.LastTS) {
		next.LastID = fetched[0].ID
		next.LastTS = fetched[0].CreatedAt
	}

	seen := prev.IDSet()
	var changes []Change
	for i := len(fetched) - 1; i >= 0; i-- {
		ev := fetched[i]
		if seen.Contains(ev.ID) {
			continue
		}
		if !ev.CreatedAt.After(prev.LastTS) {
			continue
		}
		if keep != nil && !keep(ev) {
			continue
		}
		e := ev
		changes = append(changes, Change{
			Kind:     CategoryEvent,
			Label:    Kind(ev.Type),
			Name:     ev.RepoName,
			Event:    &e,
			Occurred: ev.CreatedAt,
		})
	}
	return changes, next
}
