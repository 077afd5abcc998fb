package substitution

// StatusTag is the availability class a candidate falls into for one slot.
type StatusTag string

const (
	StatusPoolReady         StatusTag = "POOL_READY"
	StatusHomeroomFree      StatusTag = "HOMEROOM_FREE"
	StatusHomeroomStay      StatusTag = "HOMEROOM_STAY"
	StatusHomeroomSupport   StatusTag = "HOMEROOM_SUPPORT"
	StatusSpecialist        StatusTag = "SPECIALIST"
	StatusSupportProctor    StatusTag = "SUPPORT_PROCTOR"
	StatusFreed             StatusTag = "FREED"
	StatusFreeWindow        StatusTag = "FREE_WINDOW"
	StatusStay              StatusTag = "STAY"
	StatusIndividualSupport StatusTag = "INDIVIDUAL_SUPPORT"
	StatusSharedSupport     StatusTag = "SHARED_SUPPORT"
	StatusExternal          StatusTag = "EXTERNAL"
	StatusBusyHomeroom      StatusTag = "BUSY_HOMEROOM"
	StatusBusySpecialist    StatusTag = "BUSY_SPECIALIST"
	StatusBusyCoverage      StatusTag = "BUSY_COVERAGE"
	StatusBusyEvent         StatusTag = "BUSY_EVENT"
	StatusBlockedContinuity StatusTag = "BLOCKED_CONTINUITY"
	StatusBusy              StatusTag = "BUSY"
	StatusOffDuty           StatusTag = "OFF_DUTY"
	StatusAbsent            StatusTag = "ABSENT"
)

// recommendedCutoff is the first priority that is no longer offered in the recommended view.
const recommendedCutoff = 15

type statusInfo struct {
	priority int
	label    string
	// blocked candidates may be shown but never assigned.
	blocked bool
	// excluded candidates never appear in a ranking.
	excluded bool
}

var statusTable = map[StatusTag]statusInfo{
	StatusPoolReady:         {priority: 0, label: "reserve pool"},
	StatusHomeroomFree:      {priority: 1, label: "homeroom teacher, free"},
	StatusHomeroomStay:      {priority: 1, label: "homeroom teacher, stay-swap"},
	StatusHomeroomSupport:   {priority: 2, label: "homeroom teacher, leaves individual support"},
	StatusSpecialist:        {priority: 3, label: "subject specialist"},
	StatusSupportProctor:    {priority: 4, label: "support proctor"},
	StatusFreed:             {priority: 5, label: "freed by calendar event"},
	StatusFreeWindow:        {priority: 6, label: "free period"},
	StatusStay:              {priority: 7, label: "stay lesson swap"},
	StatusIndividualSupport: {priority: 8, label: "individual support swap"},
	StatusSharedSupport:     {priority: 9, label: "shared support swap"},
	StatusExternal:          {priority: 15, label: "external, not in pool"},
	StatusBusyHomeroom:      {priority: 20, label: "homeroom teacher busy", blocked: true},
	StatusBusySpecialist:    {priority: 22, label: "specialist busy with another exam", blocked: true},
	StatusBusyCoverage:      {priority: 24, label: "already covering this period", blocked: true},
	StatusBusyEvent:         {priority: 26, label: "busy with calendar event", blocked: true},
	StatusBlockedContinuity: {priority: 28, label: "external cannot take this lesson", blocked: true, excluded: true},
	StatusBusy:              {priority: 30, label: "teaching", blocked: true, excluded: true},
	StatusOffDuty:           {priority: 99, label: "off duty", blocked: true, excluded: true},
	StatusAbsent:            {priority: 99, label: "absent", blocked: true, excluded: true},
}

// Priority is the ranking tier; lower is better.
func (s StatusTag) Priority() int {
	if info, ok := statusTable[s]; ok {
		return info.priority
	}
	return statusTable[StatusOffDuty].priority
}

// Label is the short human readable description of the tag.
func (s StatusTag) Label() string {
	return statusTable[s].label
}

// Blocked reports whether a candidate with the tag cannot be assigned.
func (s StatusTag) Blocked() bool {
	info, ok := statusTable[s]
	return !ok || info.blocked
}

// Excluded reports whether a candidate with the tag is removed from every ranking.
func (s StatusTag) Excluded() bool {
	info, ok := statusTable[s]
	return !ok || info.excluded
}

// IsBusy reports whether the tag is one of the shown-but-blocked busy tiers.
func (s StatusTag) IsBusy() bool {
	return s.Blocked() && !s.Excluded()
}
