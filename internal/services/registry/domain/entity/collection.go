package entity

import (
	"slices"
	"strconv"
	"strings"
)

// Record is any entry stored in a collection.
type Record interface {
	Registration | Contract
	RecordID() int
}

// Collection is an ordered set of records plus the highest id ever issued.
// LastID survives deletions so ids are never reissued.
type Collection[T Record] struct {
	Records []T
	LastID  int
}

// NextID returns the id the next created record receives.
func (c Collection[T]) NextID() int {
	highest := c.LastID
	for _, record := range c.Records {
		if id := record.RecordID(); id > highest {
			highest = id
		}
	}
	return highest + 1
}

// Append assigns the next id to record, appends it, and returns the stored value.
func (c Collection[T]) Append(assign func(id int) T) (Collection[T], T) {
	id := c.NextID()
	record := assign(id)
	out := c.Clone()
	out.Records = append(out.Records, record)
	out.LastID = id
	return out, record
}

// Index returns the position of the record with id, or -1.
func (c Collection[T]) Index(id int) int {
	return slices.IndexFunc(c.Records, func(record T) bool { return record.RecordID() == id })
}

// Find returns the record with id.
func (c Collection[T]) Find(id int) (T, bool) {
	if i := c.Index(id); i >= 0 {
		return c.Records[i], true
	}
	var zero T
	return zero, false
}

// Replace returns a copy with the record at index i swapped for record.
func (c Collection[T]) Replace(i int, record T) Collection[T] {
	out := c.Clone()
	out.Records[i] = record
	return out
}

// Remove returns a copy without the record with id. The high-water mark is
// kept so the removed id stays retired.
func (c Collection[T]) Remove(id int) (Collection[T], T, bool) {
	i := c.Index(id)
	if i < 0 {
		var zero T
		return c, zero, false
	}
	removed := c.Records[i]
	out := c.Clone()
	out.LastID = max(out.LastID, c.NextID()-1)
	out.Records = slices.Delete(out.Records, i, i+1)
	return out, removed, true
}

// Clone returns a copy that shares no backing array with c.
func (c Collection[T]) Clone() Collection[T] {
	return Collection[T]{Records: slices.Clone(c.Records), LastID: c.LastID}
}

// Len returns the number of records.
func (c Collection[T]) Len() int { return len(c.Records) }

// ResolveRegistration finds a registration by exact numeric id, else by
// case-insensitive name. Ties on name go to the lowest id.
func ResolveRegistration(records []Registration, ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, false
	}
	if id, err := strconv.Atoi(ref); err == nil {
		if i := slices.IndexFunc(records, func(r Registration) bool { return r.ID == id }); i >= 0 {
			return i, true
		}
	}
	return FindByName(records, ref)
}

// FindByName returns the index of the lowest-id registration whose name
// matches case-insensitively.
func FindByName(records []Registration, name string) (int, bool) {
	name = strings.TrimSpace(name)
	best := -1
	for i, record := range records {
		if !strings.EqualFold(record.Name, name) {
			continue
		}
		if best < 0 || record.ID < records[best].ID {
			best = i
		}
	}
	return best, best >= 0
}
