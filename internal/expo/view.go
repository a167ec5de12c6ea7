package expo

import (
	"fmt"
	"sort"
	"time"
)

// Status filters selectable on the board. ACTIVE covers everything staff can
// still act on.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
	FilterCancelled = "cancelled"
)

// ExpireAfter is how long a COMPLETED order or waiter call stays on the board
// after its last update. Expired entries are hidden, not deleted; direct
// fetches still return them.
const ExpireAfter = 60 * time.Second

// ParseFilter normalizes a filter query value. Empty means ALL.
func ParseFilter(s string) (string, error) {
	switch s {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterCompleted, FilterCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

func matchesFilter(status, filter string) bool {
	switch filter {
	case FilterAll:
		return true
	case FilterActive:
		return status == StatusPending || status == StatusPreparing || status == StatusServed
	case FilterCompleted:
		return status == StatusCompleted
	case FilterCancelled:
		return status == StatusCancelled
	}
	return false
}

func expired(status string, updatedAt, now time.Time) bool {
	return status == StatusCompleted && now.Sub(updatedAt) > ExpireAfter
}

// VisibleOrders derives the rendered order list: auto-expiry first, then the
// status filter, newest orders on top.
func VisibleOrders(orders []*Order, filter string, now time.Time) []*Order {
	result := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if expired(o.Status, o.UpdatedAt, now) {
			continue
		}
		if !matchesFilter(o.Status, filter) {
			continue
		}
		result = append(result, o)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// VisibleCalls derives the call board: completed calls expire like orders,
// longest-waiting calls on top.
func VisibleCalls(calls []*WaiterCall, now time.Time) []*WaiterCall {
	result := make([]*WaiterCall, 0, len(calls))
	for _, c := range calls {
		if expired(c.Status, c.UpdatedAt, now) {
			continue
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// ElapsedLabel renders the age of a board entry: "just now" under a minute,
// otherwise whole minutes.
func ElapsedLabel(since, now time.Time) string {
	elapsed := now.Sub(since)
	if elapsed < time.Minute {
		return "just now"
	}
	return fmt.Sprintf("%d min", int(elapsed.Minutes()))
}
