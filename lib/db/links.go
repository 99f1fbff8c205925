package db

import (
	"strconv"

	"github.com/hashicorp/golang-lru/simplelru"
)

// Link is a directed edge between two normalized ids.
type Link struct {
	Source string
	Target string
}

// LinkIndex is a capacity-bounded, ordered set of directed edges. Adding an
// existing edge moves it to the tail, adding a new edge to a full index drops
// the oldest one first. A capacity of zero disables the index: every Add is
// silently ignored.
//
// Queries scan all edges, the capacity keeps them small.
// LinkIndex is not safe for concurrent use.
type LinkIndex struct {
	capacity int
	maxIDLen int
	links    *simplelru.LRU // nil when capacity is zero
}

// NewLinkIndex creates an empty index holding at most capacity edges.
func NewLinkIndex(capacity, maxIDLen int) (*LinkIndex, error) {
	if capacity < 0 {
		return nil, NewError(RetCInvalidConfiguration, "invalid value for capacity: "+strconv.Itoa(capacity))
	}
	if maxIDLen <= 0 {
		return nil, NewError(RetCInvalidConfiguration, "invalid value for max id length: "+strconv.Itoa(maxIDLen))
	}

	idx := &LinkIndex{capacity: capacity, maxIDLen: maxIDLen}
	if capacity == 0 {
		return idx, nil
	}

	links, err := simplelru.NewLRU(capacity, nil)
	if err != nil {
		return nil, NewError(RetCInvalidConfiguration, err.Error())
	}
	idx.links = links
	return idx, nil
}

// normalize converts both ends of an edge into canonical ids.
func (l *LinkIndex) normalize(source, target any) (Link, error) {
	s, err := NormalizeID(source, l.maxIDLen)
	if err != nil {
		return Link{}, err
	}
	t, err := NormalizeID(target, l.maxIDLen)
	if err != nil {
		return Link{}, err
	}
	return Link{Source: s, Target: t}, nil
}

// all returns the edges from oldest to newest.
func (l *LinkIndex) all() []Link {
	if l.links == nil {
		return nil
	}
	keys := l.links.Keys()
	links := make([]Link, 0, len(keys))
	for _, k := range keys {
		links = append(links, k.(Link))
	}
	return links
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add inserts the edge source -> target or refreshes it if present.
func (l *LinkIndex) Add(source, target any) error {
	link, err := l.normalize(source, target)
	if err != nil {
		return err
	}
	if l.links == nil {
		return nil
	}
	// Add refreshes existing keys and drops the oldest one on overflow
	l.links.Add(link, struct{}{})
	return nil
}

// Remove deletes the edge source -> target if present.
func (l *LinkIndex) Remove(source, target any) error {
	link, err := l.normalize(source, target)
	if err != nil {
		return err
	}
	if l.links != nil {
		l.links.Remove(link)
	}
	return nil
}

// DeleteSource removes every edge leaving source.
func (l *LinkIndex) DeleteSource(source any) error {
	s, err := NormalizeID(source, l.maxIDLen)
	if err != nil {
		return err
	}
	for _, link := range l.all() {
		if link.Source == s {
			l.links.Remove(link)
		}
	}
	return nil
}

// DeleteTarget removes every edge pointing at target.
func (l *LinkIndex) DeleteTarget(target any) error {
	t, err := NormalizeID(target, l.maxIDLen)
	if err != nil {
		return err
	}
	for _, link := range l.all() {
		if link.Target == t {
			l.links.Remove(link)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// IsLinked reports whether the edge source -> target exists. It does not
// refresh the edge.
func (l *LinkIndex) IsLinked(source, target any) (bool, error) {
	link, err := l.normalize(source, target)
	if err != nil {
		return false, err
	}
	if l.links == nil {
		return false, nil
	}
	return l.links.Contains(link), nil
}

// TargetsForSource returns the targets of all edges leaving source, oldest
// edge first.
func (l *LinkIndex) TargetsForSource(source any) ([]string, error) {
	s, err := NormalizeID(source, l.maxIDLen)
	if err != nil {
		return nil, err
	}
	targets := []string{}
	for _, link := range l.all() {
		if link.Source == s {
			targets = append(targets, link.Target)
		}
	}
	return targets, nil
}

// SourcesForTarget returns the sources of all edges pointing at target,
// oldest edge first.
func (l *LinkIndex) SourcesForTarget(target any) ([]string, error) {
	t, err := NormalizeID(target, l.maxIDLen)
	if err != nil {
		return nil, err
	}
	sources := []string{}
	for _, link := range l.all() {
		if link.Target == t {
			sources = append(sources, link.Source)
		}
	}
	return sources, nil
}

// Links returns a copy of all edges from oldest to newest.
func (l *LinkIndex) Links() []Link { return l.all() }

// Len returns the number of edges.
func (l *LinkIndex) Len() int {
	if l.links == nil {
		return 0
	}
	return l.links.Len()
}

// Capacity returns the maximum number of edges.
func (l *LinkIndex) Capacity() int { return l.capacity }
