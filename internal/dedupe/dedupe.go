package dedupe

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Store is the persistence the deduplication index reads from.
type Store interface {
	ContactedAddresses(ownerID uint) ([]string, error)
	SharingCollaborators(ownerID uint) ([]uint, error)
}

// Set is a case-insensitive address set. A generation batch adds each
// address it drafts so duplicates inside one batch are caught too.
type Set struct {
	members map[string]bool
}

// NewSet creates an empty Set
func NewSet() *Set {
	return &Set{members: make(map[string]bool)}
}

// Has reports whether the address is in the set.
func (s *Set) Has(address string) bool {
	return s.members[strings.ToLower(address)]
}

// Add inserts the address.
func (s *Set) Add(address string) {
	s.members[strings.ToLower(address)] = true
}

// Len returns the number of distinct addresses.
func (s *Set) Len() int {
	return len(s.members)
}

// Index builds the already-contacted set used to filter incoming
// contact lists before any generation cost is spent on them.
type Index struct {
	store Store
}

// New creates a new Index
func New(store Store) *Index {
	return &Index{store: store}
}

// BuildAlreadyContacted unions every address ever recorded for the
// owner with, when enabled, those of each collaborator who opted into
// contact sharing. Collaborator data is read-only here; no
// synchronization beyond the read is needed.
func (i *Index) BuildAlreadyContacted(ownerID uint, includeCollaborators bool) (*Set, error) {
	set := NewSet()

	addresses, err := i.store.ContactedAddresses(ownerID)
	if err != nil {
		return nil, err
	}
	for _, addr := range addresses {
		set.Add(addr)
	}

	if includeCollaborators {
		collaborators, err := i.store.SharingCollaborators(ownerID)
		if err != nil {
			return nil, err
		}
		for _, id := range collaborators {
			addresses, err := i.store.ContactedAddresses(id)
			if err != nil {
				return nil, err
			}
			for _, addr := range addresses {
				set.Add(addr)
			}
		}
	}

	logrus.Debugf("Built dedup index for owner %d: %d addresses (collaborators=%v)",
		ownerID, set.Len(), includeCollaborators)
	return set, nil
}
