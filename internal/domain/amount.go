package domain

import (
	"sort"
	"strconv"
)

// Amount is either a single amount in the currency's smallest unit or an
// N-times schedule keyed by YYYY-MM-DD dates. By contract the first date of
// a schedule is today; that is not checked here.
type Amount struct {
	single   int64
	schedule map[string]int64
}

// Single returns a one-shot amount in minor units (100 = 1.00 EUR).
func Single(minor int64) Amount {
	return Amount{single: minor}
}

// Schedule returns a fragmented payment amount.
func Schedule(byDate map[string]int64) Amount {
	cp := make(map[string]int64, len(byDate))
	for d, v := range byDate {
		cp[d] = v
	}
	return Amount{schedule: cp}
}

func (a Amount) IsSchedule() bool {
	return a.schedule != nil
}

// Dates returns the schedule dates in ascending order.
func (a Amount) Dates() []string {
	dates := make([]string, 0, len(a.schedule))
	for d := range a.schedule {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Apply sets AMOUNT or AMOUNTS on p and removes the other one, so exactly
// one of them is ever present.
func (a Amount) Apply(p Params) {
	if !a.IsSchedule() {
		delete(p, KeyAmounts)
		p[KeyAmount] = Int(a.single)
		return
	}
	entries := make(map[string]string, len(a.schedule))
	for _, d := range a.Dates() {
		entries[d] = strconv.FormatInt(a.schedule[d], 10)
	}
	delete(p, KeyAmount)
	p[KeyAmounts] = Nested(entries)
}
