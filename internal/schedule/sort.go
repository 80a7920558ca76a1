package schedule

import (
	"cmp"
	"slices"
	"strings"

	"festivalscheduling/internal/domain"
)

// compareSessions orders by datetime key, then by display order with unset
// orders last.
func compareSessions(a, b *domain.Session) int {
	if c := strings.Compare(SessionKey(a), SessionKey(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.Rank(), b.Rank())
}

// SortSessions returns the sessions in display order. The sort is stable:
// sessions with equal key and display order keep their input order. The input
// slice is not modified.
func SortSessions(sessions []*domain.Session) []*domain.Session {
	out := make([]*domain.Session, len(sessions))
	copy(out, sessions)
	slices.SortStableFunc(out, compareSessions)
	return out
}

// NormalizeDisplayOrders renumbers display orders 0..n-1 within every group of
// sessions that share a datetime key. Inside a group the existing order is
// kept (unset last, ties in input order). Groups are visited chronologically.
//
// Only sessions whose value changes are returned, so a second run over the
// applied result returns nothing. The sessions themselves are not modified.
func NormalizeDisplayOrders(sessions []*domain.Session) []domain.DisplayOrderChange {
	groups := make(map[string][]*domain.Session)
	var keys []string
	for _, s := range sessions {
		k := SessionKey(s)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}
	slices.Sort(keys)

	var changes []domain.DisplayOrderChange
	for _, k := range keys {
		group := groups[k]
		slices.SortStableFunc(group, func(a, b *domain.Session) int {
			return cmp.Compare(a.Rank(), b.Rank())
		})
		for i, s := range group {
			next := float64(i)
			if s.DisplayOrder != nil && *s.DisplayOrder == next {
				continue
			}
			var prev *float64
			if s.DisplayOrder != nil {
				v := *s.DisplayOrder
				prev = &v
			}
			changes = append(changes, domain.DisplayOrderChange{SessionID: s.ID, Previous: prev, Next: next})
		}
	}
	return changes
}

// ApplyDisplayOrderChanges writes changes onto the matching sessions in place.
func ApplyDisplayOrderChanges(sessions []*domain.Session, changes []domain.DisplayOrderChange) {
	byID := make(map[string]float64, len(changes))
	for _, c := range changes {
		byID[c.SessionID] = c.Next
	}
	for _, s := range sessions {
		if next, ok := byID[s.ID]; ok {
			v := next
			s.DisplayOrder = &v
		}
	}
}

// ChangesToUpdates converts normalization output into repository updates.
func ChangesToUpdates(changes []domain.DisplayOrderChange) []domain.DisplayOrderUpdate {
	updates := make([]domain.DisplayOrderUpdate, 0, len(changes))
	for _, c := range changes {
		updates = append(updates, domain.DisplayOrderUpdate{SessionID: c.SessionID, DisplayOrder: c.Next})
	}
	return updates
}
