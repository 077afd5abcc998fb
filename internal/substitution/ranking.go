package substitution

import (
	"fmt"
	"sort"
	"strings"
)

// Filter selects which candidates a ranking returns.
type Filter string

const (
	// FilterRecommended keeps offerable candidates plus busy tiers shown for context.
	FilterRecommended Filter = "recommended"
	// FilterAll keeps every candidate that is not hard-excluded.
	FilterAll Filter = "all"
)

// ParseFilter maps query input to a Filter. Empty input means recommended.
func ParseFilter(raw string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FilterRecommended:
		return FilterRecommended, nil
	case FilterAll:
		return FilterAll, nil
	default:
		return "", fmt.Errorf("unknown filter %q", raw)
	}
}

// CandidateAssessment is one ranked candidate for a slot. It is derived on every call.
type CandidateAssessment struct {
	TeacherID   string    `json:"teacherId"`
	TeacherName string    `json:"teacherName"`
	External    bool      `json:"external"`
	Status      StatusTag `json:"status"`
	Priority    int       `json:"priority"`
	Label       string    `json:"label"`
	Rationale   string    `json:"rationale"`
	Blocked     bool      `json:"blocked"`
}

// RankCandidates orders every non-absent teacher for the slot by priority, then name.
func (b *Board) RankCandidates(slot SlotKey, filter Filter) ([]CandidateAssessment, error) {
	lesson, err := b.slotLesson(slot)
	if err != nil {
		return nil, err
	}
	sc := b.newSlotContext(slot, lesson)

	ranked := make([]CandidateAssessment, 0, len(b.teachers))
	for id, t := range b.teachers {
		if b.IsAbsent(id) {
			continue
		}
		a := b.assess(t, sc)
		if !keep(a.Status, filter) {
			continue
		}
		ranked = append(ranked, a)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority < ranked[j].Priority
		}
		if ranked[i].TeacherName != ranked[j].TeacherName {
			return ranked[i].TeacherName < ranked[j].TeacherName
		}
		return ranked[i].TeacherID < ranked[j].TeacherID
	})
	return ranked, nil
}

func keep(tag StatusTag, filter Filter) bool {
	if tag.Excluded() {
		return false
	}
	if filter == FilterAll {
		return true
	}
	return tag.Priority() < recommendedCutoff || tag.IsBusy()
}
