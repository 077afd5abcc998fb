package substitution

import "sort"

// SlotKey identifies an uncovered lesson on the board's date.
type SlotKey struct {
	AbsentTeacherID string `json:"absentTeacherId"`
	Period          int    `json:"period"`
}

// ResolutionKind enumerates how a slot is resolved.
type ResolutionKind string

const (
	Unresolved         ResolutionKind = "UNRESOLVED"
	SubstituteAssigned ResolutionKind = "SUBSTITUTE_ASSIGNED"
	AssistantCovered   ResolutionKind = "ASSISTANT_COVERED"
	ClassMerged        ResolutionKind = "CLASS_MERGED"
)

// Resolution is the state of one slot. Only the field matching Kind is populated.
type Resolution struct {
	Kind          ResolutionKind `json:"kind"`
	SubstituteID  string         `json:"substituteId,omitempty"`
	TargetClassID string         `json:"targetClassId,omitempty"`
}

// IsResolved reports whether the slot has any resolution.
func (r Resolution) IsResolved() bool {
	return r.Kind != "" && r.Kind != Unresolved
}

// AssignmentMap is the ledger of slot resolutions for one date. It guarantees a slot holds a single
// resolution and a substitute covers at most one slot per period.
type AssignmentMap struct {
	states  map[SlotKey]Resolution
	holders map[int]map[string]SlotKey
	version uint64
}

// NewAssignmentMap returns an empty ledger.
func NewAssignmentMap() *AssignmentMap {
	return &AssignmentMap{
		states:  make(map[SlotKey]Resolution),
		holders: make(map[int]map[string]SlotKey),
	}
}

// Version increases on every state change.
func (m *AssignmentMap) Version() uint64 {
	return m.version
}

// Get returns the slot's resolution, Unresolved when none was recorded.
func (m *AssignmentMap) Get(slot SlotKey) Resolution {
	if state, ok := m.states[slot]; ok {
		return state
	}
	return Resolution{Kind: Unresolved}
}

// HeldBy returns the slot the substitute covers at the period.
func (m *AssignmentMap) HeldBy(substituteID string, period int) (SlotKey, bool) {
	slot, ok := m.holders[period][substituteID]
	return slot, ok
}

// Assign records a substitute for the slot, replacing any other resolution of the slot.
func (m *AssignmentMap) Assign(slot SlotKey, substituteID string) error {
	if held, ok := m.HeldBy(substituteID, slot.Period); ok && held != slot {
		return &ConflictError{SubstituteID: substituteID, Period: slot.Period, HeldBy: held}
	}
	m.set(slot, Resolution{Kind: SubstituteAssigned, SubstituteID: substituteID})
	return nil
}

// Unassign clears the slot. Clearing an unresolved slot is a no-op and does not bump the version.
func (m *AssignmentMap) Unassign(slot SlotKey) {
	if !m.Get(slot).IsResolved() {
		return
	}
	m.set(slot, Resolution{Kind: Unresolved})
}

// ToggleAssistant flips the slot between AssistantCovered and Unresolved.
func (m *AssignmentMap) ToggleAssistant(slot SlotKey) Resolution {
	if m.Get(slot).Kind == AssistantCovered {
		m.set(slot, Resolution{Kind: Unresolved})
	} else {
		m.set(slot, Resolution{Kind: AssistantCovered})
	}
	return m.Get(slot)
}

// ToggleMerge sets the merge target, or clears it when the slot is already merged into the target
// or the target is empty.
func (m *AssignmentMap) ToggleMerge(slot SlotKey, targetClassID string) Resolution {
	current := m.Get(slot)
	if targetClassID == "" || (current.Kind == ClassMerged && current.TargetClassID == targetClassID) {
		m.Unassign(slot)
	} else {
		m.set(slot, Resolution{Kind: ClassMerged, TargetClassID: targetClassID})
	}
	return m.Get(slot)
}

// Snapshot copies every resolved slot.
func (m *AssignmentMap) Snapshot() map[SlotKey]Resolution {
	out := make(map[SlotKey]Resolution, len(m.states))
	for slot, state := range m.states {
		out[slot] = state
	}
	return out
}

// SlotsCoveredBy lists the slots the substitute covers, ordered by period.
func (m *AssignmentMap) SlotsCoveredBy(substituteID string) []SlotKey {
	var slots []SlotKey
	for _, holders := range m.holders {
		if slot, ok := holders[substituteID]; ok {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Period < slots[j].Period })
	return slots
}

func (m *AssignmentMap) set(slot SlotKey, next Resolution) {
	prev := m.Get(slot)
	if prev.Kind == SubstituteAssigned {
		delete(m.holders[slot.Period], prev.SubstituteID)
	}
	if next.IsResolved() {
		m.states[slot] = next
	} else {
		delete(m.states, slot)
	}
	if next.Kind == SubstituteAssigned {
		holders, ok := m.holders[slot.Period]
		if !ok {
			holders = make(map[string]SlotKey)
			m.holders[slot.Period] = holders
		}
		holders[next.SubstituteID] = slot
	}
	m.version++
}
