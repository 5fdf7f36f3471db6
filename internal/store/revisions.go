package store

import (
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// OrderRevisions sorts the revisions of a single entity oldest first by
// walking the PreviousVersion links from the root revision. Timestamps
// only break ties for revisions that are not reachable from the root,
// which are appended at the end.
func OrderRevisions(revs []*domain.Task) []*domain.Task {
	if len(revs) < 2 {
		return revs
	}

	byPrevious := make(map[uuid.UUID][]*domain.Task, len(revs))
	for _, r := range revs {
		byPrevious[r.PreviousVersion] = append(byPrevious[r.PreviousVersion], r)
	}

	ordered := make([]*domain.Task, 0, len(revs))
	seen := make(map[uuid.UUID]bool, len(revs))
	next := uuid.Nil
	for {
		children := byPrevious[next]
		if len(children) == 0 {
			break
		}
		// More than one child means two writers raced on the same version;
		// follow the earliest and leave the others for the tail.
		sortByChangedOn(children)
		child := children[0]
		if seen[child.Version] {
			break
		}
		seen[child.Version] = true
		ordered = append(ordered, child)
		next = child.Version
	}

	if len(ordered) == len(revs) {
		return ordered
	}

	rest := make([]*domain.Task, 0, len(revs)-len(ordered))
	for _, r := range revs {
		if !seen[r.Version] {
			rest = append(rest, r)
		}
	}
	sortByChangedOn(rest)
	return append(ordered, rest...)
}

func sortByChangedOn(revs []*domain.Task) {
	sort.SliceStable(revs, func(i, j int) bool {
		return revs[i].ChangedOn.Before(revs[j].ChangedOn)
	})
}
