package livequery

import (
	"bytes"
	"sort"

	"github.com/blutspende/logboard/logs/model"
	"github.com/google/uuid"
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// View is what a dashboard renders. A View is never modified after it was published.
type View struct {
	Status        Status            `json:"status"`
	Error         string            `json:"error,omitempty"`
	Filter        Filter            `json:"filter"`
	Logs          []model.LogRecord `json:"logs"`
	TotalCount    int               `json:"totalCount"`
	Applications  []string          `json:"applications"`
	Loggers       []string          `json:"loggers"`
	SelectionMode bool              `json:"selectionMode"`
	Selected      []uuid.UUID       `json:"selected"`
	Aggregates
}

// state is replaced as a whole on every event, the fields are never mutated in place.
type state struct {
	status        Status
	err           string
	filter        Filter
	snapshot      []model.LogRecord
	filtered      []model.LogRecord
	selectionMode bool
	selected      map[uuid.UUID]struct{}
}

func initialState(filter Filter) state {
	return state{
		status:   StatusConnecting,
		filter:   filter.Normalized(),
		filtered: []model.LogRecord{},
		selected: map[uuid.UUID]struct{}{},
	}
}

func (s state) withSnapshot(records []model.LogRecord) state {
	s.status = StatusConnected
	s.err = ""
	s.snapshot = records
	s.filtered = Apply(records, s.filter)
	s.selected = pruneSelection(s.selected, s.filtered)
	return s
}

// withError drops the snapshot: a disconnected dashboard must not present old records as current.
func (s state) withError(err error) state {
	s.status = StatusDisconnected
	s.err = err.Error()
	s.snapshot = nil
	s.filtered = []model.LogRecord{}
	s.selected = map[uuid.UUID]struct{}{}
	return s
}

func (s state) withFilter(filter Filter) state {
	s.filter = filter.Normalized()
	s.filtered = Apply(s.snapshot, s.filter)
	s.selected = pruneSelection(s.selected, s.filtered)
	return s
}

func (s state) withFiltersCleared() state {
	s = s.withFilter(AllFilter())
	s.selectionMode = false
	s.selected = map[uuid.UUID]struct{}{}
	return s
}

func (s state) withSelectionModeToggled() state {
	s.selectionMode = !s.selectionMode
	s.selected = map[uuid.UUID]struct{}{}
	return s
}

func (s state) withSelection(id uuid.UUID, selected bool) state {
	if !s.selectionMode {
		return s
	}
	next := make(map[uuid.UUID]struct{}, len(s.selected)+1)
	for selectedID := range s.selected {
		next[selectedID] = struct{}{}
	}
	if selected {
		if !containsRecord(s.filtered, id) {
			return s
		}
		next[id] = struct{}{}
	} else {
		delete(next, id)
	}
	s.selected = next
	return s
}

// withSelectAllToggled selects every shown record, or clears the selection if all are selected already.
func (s state) withSelectAllToggled() state {
	if !s.selectionMode {
		return s
	}
	if len(s.filtered) > 0 && len(s.selected) == len(s.filtered) {
		s.selected = map[uuid.UUID]struct{}{}
		return s
	}
	next := make(map[uuid.UUID]struct{}, len(s.filtered))
	for i := range s.filtered {
		next[s.filtered[i].ID] = struct{}{}
	}
	s.selected = next
	return s
}

func (s state) withSelectionCleared() state {
	s.selected = map[uuid.UUID]struct{}{}
	return s
}

func (s state) reconnecting() state {
	s.status = StatusConnecting
	s.err = ""
	return s
}

func (s state) view() View {
	selected := make([]uuid.UUID, 0, len(s.selected))
	for id := range s.selected {
		selected = append(selected, id)
	}
	sort.Slice(selected, func(i, j int) bool {
		return bytes.Compare(selected[i][:], selected[j][:]) < 0
	})

	return View{
		Status:        s.status,
		Error:         s.err,
		Filter:        s.filter,
		Logs:          s.filtered,
		TotalCount:    len(s.snapshot),
		Applications:  DistinctApplications(s.snapshot),
		Loggers:       DistinctLoggers(s.snapshot),
		SelectionMode: s.selectionMode,
		Selected:      selected,
		Aggregates:    Aggregate(s.filtered),
	}
}

func pruneSelection(selected map[uuid.UUID]struct{}, records []model.LogRecord) map[uuid.UUID]struct{} {
	if len(selected) == 0 {
		return selected
	}
	present := make(map[uuid.UUID]struct{}, len(records))
	for i := range records {
		present[records[i].ID] = struct{}{}
	}
	next := make(map[uuid.UUID]struct{}, len(selected))
	for id := range selected {
		if _, ok := present[id]; ok {
			next[id] = struct{}{}
		}
	}
	return next
}

func containsRecord(records []model.LogRecord, id uuid.UUID) bool {
	for i := range records {
		if records[i].ID == id {
			return true
		}
	}
	return false
}
