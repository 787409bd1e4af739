package models

import "time"

// StopReason records why pagination for a filter ended.
type StopReason string

const (
	StopShortPage   StopReason = "short_page"
	StopNoNewValues StopReason = "no_new_values"
)

type FilterResult struct {
	Filter     Filter     `json:"filter"`
	Values     []string   `json:"values"`
	Pages      int        `json:"pages"`
	Reason     StopReason `json:"reason"`
	FinishedAt time.Time  `json:"finished_at"`
}

func (r *FilterResult) Count() int {
	return len(r.Values)
}
