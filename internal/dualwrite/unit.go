package dualwrite

import (
	models "rescribe/internal/domain/models/structure"
)

// Target is one of the systems a pending write is sent to
type Target string

const (
	TargetDocument Target = "document"
	TargetIndex    Target = "index"
	TargetBlob     Target = "blob"
)

// Pair is the document store write and the search index write of one
// logical change to a file or folder.
type Pair struct {
	Document models.Write
	Index    models.Write
}

type slot struct {
	document []models.Write
	index    []models.Write
}

// Unit buffers the writes of one or more logical operations until they are
// flushed by the operation that began it.
type Unit struct {
	slots map[models.EntityClass]*slot
	pairs map[models.EntityClass][]Pair
	blobs []string
}

func newUnit() *Unit {
	return &Unit{
		slots: map[models.EntityClass]*slot{
			models.EntityFile:   {},
			models.EntityFolder: {},
		},
		pairs: make(map[models.EntityClass][]Pair),
	}
}

// NewUnit allocates an empty unit a caller can pass to several operations
// before flushing it with Coordinator.FlushAll.
func NewUnit() *Unit {
	return newUnit()
}

// Queue appends a single write for one target
func (u *Unit) Queue(entity models.EntityClass, target Target, w models.Write) {
	s := u.slot(entity)
	switch target {
	case TargetDocument:
		s.document = append(s.document, w)
	case TargetIndex:
		s.index = append(s.index, w)
	}
}

// Stage queues the same change for both stores and records the pair
func (u *Unit) Stage(entity models.EntityClass, document, index models.Write) {
	u.Queue(entity, TargetDocument, document)
	u.Queue(entity, TargetIndex, index)
	u.pairs[entity] = append(u.pairs[entity], Pair{Document: document, Index: index})
}

// DeleteBlob schedules the removal of a blob object
func (u *Unit) DeleteBlob(key string) {
	u.blobs = append(u.blobs, key)
}

// Pending returns the writes waiting for target
func (u *Unit) Pending(entity models.EntityClass, target Target) []models.Write {
	s := u.slot(entity)
	switch target {
	case TargetDocument:
		return s.document
	case TargetIndex:
		return s.index
	}
	return nil
}

// PendingBlobs returns the blob keys waiting for deletion
func (u *Unit) PendingBlobs() []string {
	return u.blobs
}

// Pairs returns every dual write staged for entity, flushed or not
func (u *Unit) Pairs(entity models.EntityClass) []Pair {
	return u.pairs[entity]
}

// Empty reports whether nothing is waiting to be flushed
func (u *Unit) Empty() bool {
	for _, s := range u.slots {
		if len(s.document) > 0 || len(s.index) > 0 {
			return false
		}
	}
	return len(u.blobs) == 0
}

func (u *Unit) slot(entity models.EntityClass) *slot {
	s, ok := u.slots[entity]
	if !ok {
		s = &slot{}
		u.slots[entity] = s
	}
	return s
}

func (u *Unit) take(entity models.EntityClass, target Target) []models.Write {
	s := u.slot(entity)
	var out []models.Write
	switch target {
	case TargetDocument:
		out, s.document = s.document, nil
	case TargetIndex:
		out, s.index = s.index, nil
	}
	return out
}
