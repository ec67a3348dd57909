/*
Package calendar aggregates approved leaves and holidays into month views.

PURPOSE:
  Given a year and month plus a snapshot of requests and holidays, build
  per-day buckets of who is out and why, then derive the month-level and
  per-type summaries shown alongside the calendar.

AGGREGATION RULES:
  - Only Approved requests contribute. Pending and Rejected never show.
  - A request spanning several months contributes only the days that fall
    inside the queried month; adjacent month views partition the range
    with no overlap.
  - Nothing is deduplicated: two people out on the same day are two
    entries, and a holiday coinciding with leave keeps both.
  - Holidays never count as leave in the summaries.

This package is read-only: it consumes snapshots and mutates nothing.
*/
package calendar

import (
	"sort"
	"time"

	"github.com/warp/leave-engine/leave"
)

// Entry is one person-day of approved leave.
type Entry struct {
	Username  string         `json:"username"`
	LeaveType leave.TypeCode `json:"leave_type"`
}

// Day is one calendar day's bucket: leave entries plus any holidays.
type Day struct {
	Date     leave.Date `json:"date"`
	Leaves   []Entry    `json:"leaves"`
	Holidays []string   `json:"holidays,omitempty"`
}

// View is a month of populated day buckets in ascending date order. Days
// with neither leave nor a holiday are omitted.
type View struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []Day      `json:"days"`
}

// MonthView builds the per-day buckets for a month from the given
// snapshot collections.
func MonthView(year int, month time.Month, requests []leave.Request, holidays []leave.Holiday) View {
	first, last := leave.MonthRange(year, month)
	buckets := make(map[int]*Day)

	bucket := func(d leave.Date) *Day {
		b, ok := buckets[d.Day()]
		if !ok {
			b = &Day{Date: d}
			buckets[d.Day()] = b
		}
		return b
	}

	for _, req := range requests {
		if req.Status != leave.StatusApproved {
			continue
		}
		if !req.Overlaps(first, last) {
			continue
		}
		// Clip the inclusive range to the month.
		from, to := req.StartDate, req.EndDate
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			b := bucket(d)
			b.Leaves = append(b.Leaves, Entry{Username: req.Username, LeaveType: req.LeaveType})
		}
	}

	for _, h := range holidays {
		if h.Date.Year() != year || h.Date.Month() != month {
			continue
		}
		b := bucket(h.Date)
		b.Holidays = append(b.Holidays, h.Description)
	}

	view := View{Year: year, Month: month}
	for _, b := range buckets {
		view.Days = append(view.Days, *b)
	}
	sort.Slice(view.Days, func(i, j int) bool {
		return view.Days[i].Date.Before(view.Days[j].Date)
	})
	return view
}

// =============================================================================
// MONTH SUMMARY
// =============================================================================

// DaySummary reports one day with at least one leave entry. Holiday-only
// days do not appear.
type DaySummary struct {
	Date         leave.Date `json:"date"`
	TotalLeaves  int        `json:"total_leaves"`
	UsersOnLeave int        `json:"users_on_leave"`
}

// TypeSummary is the per-leave-type rollup across the month.
type TypeSummary struct {
	LeaveType leave.TypeCode `json:"leave_type"`
	TotalDays int            `json:"total_days"`
	Employees []string       `json:"employees"`
}

// Summary is the month-level rollup derived from a View.
type Summary struct {
	Days  []DaySummary  `json:"days"`
	Types []TypeSummary `json:"types"`
}

// MonthSummary derives per-day totals and the per-type rollup from the
// view's buckets. Employee lists are sorted for deterministic output.
func MonthSummary(view View) Summary {
	var summary Summary
	typeDays := make(map[leave.TypeCode]int)
	typeUsers := make(map[leave.TypeCode]map[string]bool)

	for _, day := range view.Days {
		if len(day.Leaves) == 0 {
			continue
		}
		users := make(map[string]bool)
		for _, entry := range day.Leaves {
			users[entry.Username] = true
			typeDays[entry.LeaveType]++
			if typeUsers[entry.LeaveType] == nil {
				typeUsers[entry.LeaveType] = make(map[string]bool)
			}
			typeUsers[entry.LeaveType][entry.Username] = true
		}
		summary.Days = append(summary.Days, DaySummary{
			Date:         day.Date,
			TotalLeaves:  len(day.Leaves),
			UsersOnLeave: len(users),
		})
	}

	for code, days := range typeDays {
		employees := make([]string, 0, len(typeUsers[code]))
		for u := range typeUsers[code] {
			employees = append(employees, u)
		}
		sort.Strings(employees)
		summary.Types = append(summary.Types, TypeSummary{
			LeaveType: code,
			TotalDays: days,
			Employees: employees,
		})
	}
	sort.Slice(summary.Types, func(i, j int) bool {
		return summary.Types[i].LeaveType < summary.Types[j].LeaveType
	})
	return summary
}
