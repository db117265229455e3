package report

import (
	"fmt"
	"strings"
	"time"

	"cloudbudget/internal/core"
)

// PeriodKind selects how a report's month range is chosen.
type PeriodKind string

const (
	LastSixMonths    PeriodKind = "6m"
	LastTwelveMonths PeriodKind = "12m"
	Custom           PeriodKind = "custom"
)

// Period is a report window. From and To are only read for Custom; a zero
// value there means the current month.
type Period struct {
	Kind PeriodKind
	From core.Month
	To   core.Month
}

// ParsePeriod builds a Period from CLI style input. from and to are
// YYYY-MM and may be empty.
func ParsePeriod(kind, from, to string) (Period, error) {
	p := Period{Kind: PeriodKind(strings.ToLower(strings.TrimSpace(kind)))}
	switch p.Kind {
	case "":
		p.Kind = LastSixMonths
	case LastSixMonths, LastTwelveMonths:
	case Custom:
		var err error
		if from != "" {
			if p.From, err = core.ParseMonth(from); err != nil {
				return Period{}, fmt.Errorf("period start: %w", err)
			}
		}
		if to != "" {
			if p.To, err = core.ParseMonth(to); err != nil {
				return Period{}, fmt.Errorf("period end: %w", err)
			}
		}
	default:
		return Period{}, fmt.Errorf("unknown period %q (want 6m, 12m or custom)", kind)
	}
	return p, nil
}

// Range resolves the period against now. Rolling windows end with the
// current month and include it.
func (p Period) Range(now time.Time) (start, end core.Month) {
	current := core.MonthOf(now)
	switch p.Kind {
	case LastTwelveMonths:
		return current.AddMonths(-11), current
	case Custom:
		start, end = current, current
		if p.From != (core.Month{}) {
			start = p.From
		}
		if p.To != (core.Month{}) {
			end = p.To
		}
		if end.Before(start) {
			end = start
		}
		return start, end
	default:
		return current.AddMonths(-5), current
	}
}

// Label is the human readable name of the period.
func (p Period) Label(now time.Time) string {
	switch p.Kind {
	case LastSixMonths, "":
		return "last 6 months"
	case LastTwelveMonths:
		return "last 12 months"
	}
	start, end := p.Range(now)
	return start.String() + " ~ " + end.String()
}
