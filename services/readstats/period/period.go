// Package period decides which reporting months a run has to reconcile.
package period

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

type Period struct {
	ID    int64
	Year  int
	Month int
}

func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// Before compares calendar position only, ids are ignored.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p Period) Same(other Period) bool {
	return p.Year == other.Year && p.Month == other.Month
}

type State int

const (
	Bootstrap State = iota
	SteadyState
	Crossover
	FetchFailure
	Regressed
)

func (s State) String() string {
	switch s {
	case Bootstrap:
		return "bootstrap"
	case SteadyState:
		return "steady"
	case Crossover:
		return "crossover"
	case FetchFailure:
		return "fetch failure"
	case Regressed:
		return "regressed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Task is one reconciliation pass. A nil Doc means the page for the
// period has to be fetched again before the pass runs.
type Task struct {
	Period  Period
	Doc     *goquery.Document
	CatchUp bool
	// the period is not stored yet
	New bool
}

type Plan struct {
	State    State
	Tasks    []Task
	Observed Period
	Err      error
}

// NewPlan is a pure function of the last stored period (nil when none),
// the period read off the fresh page and the outcome of that fetch.
//
// Only a single month step is handled, a run that skipped two or more
// months replays the last stored one and moves on to the observed one.
func NewPlan(last *Period, observed Period, doc *goquery.Document, fetchErr error) Plan {
	if fetchErr != nil {
		return Plan{State: FetchFailure, Err: fetchErr}
	}
	if last == nil {
		observed.ID = 1
		return Plan{State: Bootstrap, Observed: observed}
	}
	if observed.Same(*last) {
		observed.ID = last.ID
		return Plan{
			State:    SteadyState,
			Observed: observed,
			Tasks:    []Task{{Period: *last, Doc: doc}},
		}
	}
	if observed.Before(*last) {
		return Plan{State: Regressed, Observed: observed}
	}

	observed.ID = last.ID + 1
	return Plan{
		State:    Crossover,
		Observed: observed,
		Tasks: []Task{
			{Period: *last, CatchUp: true},
			{Period: observed, Doc: doc, New: true},
		},
	}
}
