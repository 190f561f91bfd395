package storage

import (
	"sort"

	"trading-journal-go/internal/models"
)

// SortEntries orders entries most recent first. Entries sharing a date are
// ordered by creation time, newest first, then by id so the head is deterministic.
func SortEntries(entries []models.DailyEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// SortAccounts orders accounts newest first, then by id.
func SortAccounts(accounts []models.TradingAccount) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
