package schedule

import (
	"festivalscheduling/internal/domain"
)

// DefaultSampleSize is the number of plan entries shown in an import preview.
const DefaultSampleSize = 10

// naturalKey is the import matching key. It is never persisted.
type naturalKey struct {
	day, startTime, title string
}

func keyOf(s *domain.Session) naturalKey {
	return naturalKey{day: s.Day, startTime: s.StartTime, title: s.Title}
}

// Reconcile diffs incoming import sessions against the festival's current
// sessions by (day, startTime, title), compared exactly.
//
// Matching is one-to-one in input order: an incoming session takes the first
// current session with its key that no earlier incoming session took. A
// current session left unmatched is kept when it has bookings and deleted
// otherwise. Nothing is mutated.
func Reconcile(current, incoming []*domain.Session) *domain.MergePlan {
	plan := &domain.MergePlan{}

	available := make(map[naturalKey][]int, len(current))
	for i, s := range current {
		k := keyOf(s)
		available[k] = append(available[k], i)
	}

	matched := make([]bool, len(current))
	for _, in := range incoming {
		k := keyOf(in)
		if idx := available[k]; len(idx) > 0 {
			i := idx[0]
			available[k] = idx[1:]
			matched[i] = true
			plan.ToUpdate = append(plan.ToUpdate, domain.SessionMatch{Existing: current[i], Incoming: in})
			continue
		}
		plan.ToCreate = append(plan.ToCreate, in)
	}

	for i, s := range current {
		if matched[i] {
			continue
		}
		if s.HasBookings() {
			plan.ToKeep = append(plan.ToKeep, s)
		} else {
			plan.ToDelete = append(plan.ToDelete, s)
		}
	}
	return plan
}

// GuardDeletions moves every session with bookings out of ToDelete into
// ToKeep and returns the moved sessions.
func GuardDeletions(plan *domain.MergePlan) []*domain.Session {
	var moved []*domain.Session
	kept := plan.ToDelete[:0]
	for _, s := range plan.ToDelete {
		if s.HasBookings() {
			moved = append(moved, s)
			plan.ToKeep = append(plan.ToKeep, s)
			continue
		}
		kept = append(kept, s)
	}
	plan.ToDelete = kept
	return moved
}

// MergeSession returns a copy of existing overwritten with incoming data. ID,
// festival, bookings and creation time are kept, as are display order,
// capacity and teachers when incoming leaves them unset.
func MergeSession(existing, incoming *domain.Session) *domain.Session {
	merged := *existing
	merged.Title = incoming.Title
	merged.Day = incoming.Day
	merged.StartTime = incoming.StartTime
	merged.EndTime = incoming.EndTime
	merged.Description = incoming.Description
	merged.Location = incoming.Location
	if incoming.DisplayOrder != nil {
		v := *incoming.DisplayOrder
		merged.DisplayOrder = &v
	}
	if incoming.Capacity != nil {
		v := *incoming.Capacity
		merged.Capacity = &v
	}
	if incoming.TeacherIDs != nil {
		merged.TeacherIDs = append([]string(nil), incoming.TeacherIDs...)
	}
	if !incoming.UpdatedAt.IsZero() {
		merged.UpdatedAt = incoming.UpdatedAt
	}
	return &merged
}

// Summarize counts the plan buckets and samples up to sampleSize entries in
// bucket order update, create, keep, delete.
func Summarize(plan *domain.MergePlan, sampleSize int) domain.MergeSummary {
	summary := domain.MergeSummary{
		ToUpdate: len(plan.ToUpdate),
		ToCreate: len(plan.ToCreate),
		ToKeep:   len(plan.ToKeep),
		ToDelete: len(plan.ToDelete),
		Sample:   []domain.MergeSample{},
	}
	add := func(action string, s *domain.Session) bool {
		if len(summary.Sample) >= sampleSize {
			return false
		}
		summary.Sample = append(summary.Sample, domain.MergeSample{
			Action:    action,
			Title:     s.Title,
			Day:       s.Day,
			StartTime: s.StartTime,
		})
		return true
	}
	for _, m := range plan.ToUpdate {
		if !add(domain.MergeActionUpdate, m.Incoming) {
			return summary
		}
	}
	for _, s := range plan.ToCreate {
		if !add(domain.MergeActionCreate, s) {
			return summary
		}
	}
	for _, s := range plan.ToKeep {
		if !add(domain.MergeActionKeep, s) {
			return summary
		}
	}
	for _, s := range plan.ToDelete {
		if !add(domain.MergeActionDelete, s) {
			return summary
		}
	}
	return summary
}
