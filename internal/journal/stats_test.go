package journal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal-go/internal/models"
)

func TestSummarize(t *testing.T) {
	account := &models.TradingAccount{ID: "a1", Currency: "USD", InitialBalance: dec(1000), CurrentBalance: dec(1120)}
	entries := []models.DailyEntry{
		{ID: "c", Date: day(3), ProfitLoss: dec(50), Balance: dec(1120)},
		{ID: "b", Date: day(2), ProfitLoss: dec(-30), Balance: dec(1070)},
		{ID: "a", Date: day(1), ProfitLoss: dec(100), Balance: dec(1100)},
	}
	now := day(20)

	s := Summarize(account, entries, now)

	assert.Equal(t, "a1", s.AccountID)
	assert.InDelta(t, 12.0, s.ReturnPct, 1e-9)

	assert.Equal(t, 3, s.AllTime.TotalEntries)
	assert.Equal(t, 2, s.AllTime.WinningDays)
	assert.Equal(t, 1, s.AllTime.LosingDays)
	assert.InDelta(t, 2.0/3.0, s.AllTime.WinRate, 1e-9)
	assert.Equal(t, "120", s.AllTime.TotalProfitLoss.String())
	assert.Equal(t, "100", s.AllTime.BestDay.String())
	assert.Equal(t, "-30", s.AllTime.WorstDay.String())
	assert.InDelta(t, 40.0, s.AllTime.AverageDaily, 1e-9)
	// Sample deviation of {100, -30, 50}.
	assert.InDelta(t, math.Sqrt(4300), s.AllTime.StdDevDaily, 1e-9)

	require.Len(t, s.BalanceHistory, 3)
	assert.Equal(t, "1100", s.BalanceHistory[0].Balance.String())
	assert.Equal(t, "1120", s.BalanceHistory[2].Balance.String())
	assert.True(t, s.BalanceHistory[0].Date.Before(s.BalanceHistory[2].Date))

	assert.Equal(t, s.AllTime, s.Last30Days)
}

func TestSummarizeSince(t *testing.T) {
	entries := []models.DailyEntry{
		{Date: day(3), ProfitLoss: dec(-10)},
		{Date: day(2), ProfitLoss: dec(0)},
		{Date: day(1), ProfitLoss: dec(100)},
	}

	d := SummarizeSince(entries, day(2))
	assert.Equal(t, 2, d.TotalEntries)
	assert.Equal(t, 0, d.WinningDays)
	assert.Equal(t, 1, d.LosingDays)
	assert.Equal(t, float64(0), d.WinRate)
	assert.Equal(t, "-10", d.TotalProfitLoss.String())
	assert.Equal(t, "0", d.BestDay.String())

	single := SummarizeSince(entries[:1], time.Time{})
	assert.Equal(t, float64(0), single.StdDevDaily)
	assert.InDelta(t, -10.0, single.AverageDaily, 1e-9)

	empty := SummarizeSince(nil, time.Time{})
	assert.Equal(t, 0, empty.TotalEntries)
	assert.Equal(t, float64(0), empty.WinRate)
}

func TestSummarize_ZeroInitialBalance(t *testing.T) {
	account := &models.TradingAccount{ID: "a1", CurrentBalance: dec(50)}
	s := Summarize(account, nil, day(1))

	assert.Equal(t, float64(0), s.ReturnPct)
	assert.Empty(t, s.BalanceHistory)
}
