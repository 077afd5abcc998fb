package substitution

import "sort"

// Pool is the set of teachers manually activated as reserve substitutes for the day.
type Pool struct {
	members map[string]struct{}
	version uint64
}

// PoolPartition splits pool members into on-site teachers and teachers who must be summoned.
type PoolPartition struct {
	Available []string `json:"available"`
	OnCall    []string `json:"onCall"`
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{members: make(map[string]struct{})}
}

// Activate adds the teacher. Returns false when already a member.
func (p *Pool) Activate(teacherID string) bool {
	if p.Has(teacherID) {
		return false
	}
	p.members[teacherID] = struct{}{}
	p.version++
	return true
}

// Deactivate removes the teacher. Returns false when not a member.
func (p *Pool) Deactivate(teacherID string) bool {
	if !p.Has(teacherID) {
		return false
	}
	delete(p.members, teacherID)
	p.version++
	return true
}

// Has reports membership.
func (p *Pool) Has(teacherID string) bool {
	_, ok := p.members[teacherID]
	return ok
}

// Version increases on every membership change.
func (p *Pool) Version() uint64 {
	return p.version
}

// Members returns the sorted member ids.
func (p *Pool) Members() []string {
	out := make([]string, 0, len(p.members))
	for id := range p.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Partition derives available vs on-call members from the weekday timetable.
func (p *Pool) Partition(weekday string, timetable *TimetableIndex) PoolPartition {
	part := PoolPartition{Available: []string{}, OnCall: []string{}}
	for _, id := range p.Members() {
		if timetable.HasLessons(id, weekday) {
			part.Available = append(part.Available, id)
		} else {
			part.OnCall = append(part.OnCall, id)
		}
	}
	return part
}
