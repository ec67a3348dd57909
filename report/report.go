/*
Package report derives usage statistics from engine snapshots.

PURPOSE:
  Three read-only reports over the Users and Requests collections:
  usage-vs-balance per user and leave type, department averages, and the
  monthly leave pattern. Nothing here mutates state; every function takes
  snapshot copies and returns fresh values.

PRECISION:
  Department averages are fractional (total days / user count) and are
  computed with decimal.Decimal to keep the division exact to a fixed
  scale instead of drifting through float64.

GRANULARITY:
  MonthlyPattern groups by calendar month name across all years. That is
  the reporting behavior of the system this replaces; see DESIGN.md for
  why it was preserved rather than made year-aware.
*/
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// USAGE VS BALANCE
// =============================================================================

// UsageRow pairs approved days used with the remaining balance for one
// non-admin user and leave type.
type UsageRow struct {
	Username  string         `json:"username"`
	LeaveType leave.TypeCode `json:"leave_type"`
	DaysUsed  int            `json:"days_used"`
	Balance   int            `json:"balance"`
}

// UsageVsBalance reports, per non-admin user and configured leave type,
// the sum of approved durations against the current balance.
func UsageVsBalance(types leave.TypeSet, users map[string]leave.User, requests []leave.Request) []UsageRow {
	used := make(map[string]map[leave.TypeCode]int)
	for _, req := range requests {
		if req.Status != leave.StatusApproved {
			continue
		}
		if used[req.Username] == nil {
			used[req.Username] = make(map[leave.TypeCode]int)
		}
		used[req.Username][req.LeaveType] += req.Duration()
	}

	names := make([]string, 0, len(users))
	for name, u := range users {
		if !u.IsAdmin {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var rows []UsageRow
	for _, name := range names {
		u := users[name]
		for _, code := range types.Codes() {
			rows = append(rows, UsageRow{
				Username:  name,
				LeaveType: code,
				DaysUsed:  used[name][code],
				Balance:   u.Balance[code],
			})
		}
	}
	return rows
}

// =============================================================================
// DEPARTMENT ANALYSIS
// =============================================================================

// DepartmentRow reports the average approved days per user in one department.
type DepartmentRow struct {
	Department  string          `json:"department"`
	UserCount   int             `json:"user_count"`
	TotalDays   int             `json:"total_days"`
	AverageDays decimal.Decimal `json:"average_days"`
}

// DepartmentAnalysis reports, per department, the average total approved
// days per non-admin user. Averages are rounded to two decimal places.
func DepartmentAnalysis(users map[string]leave.User, requests []leave.Request) []DepartmentRow {
	approvedDays := make(map[string]int)
	for _, req := range requests {
		if req.Status == leave.StatusApproved {
			approvedDays[req.Username] += req.Duration()
		}
	}

	type deptAcc struct {
		users int
		days  int
	}
	depts := make(map[string]*deptAcc)
	for name, u := range users {
		if u.IsAdmin {
			continue
		}
		acc, ok := depts[u.Department]
		if !ok {
			acc = &deptAcc{}
			depts[u.Department] = acc
		}
		acc.users++
		acc.days += approvedDays[name]
	}

	var rows []DepartmentRow
	for dept, acc := range depts {
		avg := decimal.NewFromInt(int64(acc.days)).
			DivRound(decimal.NewFromInt(int64(acc.users)), 2)
		rows = append(rows, DepartmentRow{
			Department:  dept,
			UserCount:   acc.users,
			TotalDays:   acc.days,
			AverageDays: avg,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Department < rows[j].Department })
	return rows
}

// =============================================================================
// MONTHLY PATTERN
// =============================================================================

// MonthRow reports total approved days for one calendar month name.
type MonthRow struct {
	Month string `json:"month"`
	Days  int    `json:"days"`
}

// MonthlyPattern sums approved durations by the month name of the start
// date, aggregated across all years, in calendar order January..December.
// Months with no approved leave are omitted.
func MonthlyPattern(requests []leave.Request) []MonthRow {
	byMonth := make(map[time.Month]int)
	for _, req := range requests {
		if req.Status != leave.StatusApproved {
			continue
		}
		byMonth[req.StartDate.Month()] += req.Duration()
	}

	var rows []MonthRow
	for m := time.January; m <= time.December; m++ {
		if days, ok := byMonth[m]; ok {
			rows = append(rows, MonthRow{Month: m.String(), Days: days})
		}
	}
	return rows
}
