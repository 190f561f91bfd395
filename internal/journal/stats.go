package journal

import (
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"trading-journal-go/internal/models"
)

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalEntries    int             `json:"total_entries"`
	WinningDays     int             `json:"winning_days"`
	LosingDays      int             `json:"losing_days"`
	WinRate         float64         `json:"win_rate"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
	BestDay         decimal.Decimal `json:"best_day"`
	WorstDay        decimal.Decimal `json:"worst_day"`
	AverageDaily    float64         `json:"average_daily"`
	StdDevDaily     float64         `json:"stddev_daily"`
}

// BalancePoint is one step of the balance history chart.
type BalancePoint struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// Statistics is the dashboard view of one account.
type Statistics struct {
	AccountID      string          `json:"account_id"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	ReturnPct      float64         `json:"return_pct"`
	AllTime        StatsDetail     `json:"all_time"`
	Last30Days     StatsDetail     `json:"last_30_days"`
	BalanceHistory []BalancePoint  `json:"balance_history"`
}

// Summarize computes the statistics of an account. entries must be ordered
// most recent first, as returned by the backends.
func Summarize(account *models.TradingAccount, entries []models.DailyEntry, now time.Time) Statistics {
	s := Statistics{
		AccountID:      account.ID,
		Currency:       account.Currency,
		InitialBalance: account.InitialBalance,
		CurrentBalance: account.CurrentBalance,
		AllTime:        SummarizeSince(entries, time.Time{}),
		Last30Days:     SummarizeSince(entries, now.AddDate(0, 0, -30)),
		BalanceHistory: make([]BalancePoint, 0, len(entries)),
	}

	if !account.InitialBalance.IsZero() {
		s.ReturnPct, _ = account.CurrentBalance.Sub(account.InitialBalance).
			Div(account.InitialBalance).
			Mul(decimal.NewFromInt(100)).
			Float64()
	}

	for i := len(entries) - 1; i >= 0; i-- {
		s.BalanceHistory = append(s.BalanceHistory, BalancePoint{Date: entries[i].Date, Balance: entries[i].Balance})
	}
	return s
}

// SummarizeSince computes statistics over entries dated on or after since.
// A zero since includes everything.
func SummarizeSince(entries []models.DailyEntry, since time.Time) StatsDetail {
	d := StatsDetail{}
	daily := make([]float64, 0, len(entries))

	for _, e := range entries {
		if !since.IsZero() && e.Date.Before(since) {
			continue
		}

		if d.TotalEntries == 0 {
			d.BestDay, d.WorstDay = e.ProfitLoss, e.ProfitLoss
		}
		d.TotalEntries++
		switch e.ProfitLoss.Sign() {
		case 1:
			d.WinningDays++
		case -1:
			d.LosingDays++
		}
		d.TotalProfitLoss = d.TotalProfitLoss.Add(e.ProfitLoss)
		if e.ProfitLoss.GreaterThan(d.BestDay) {
			d.BestDay = e.ProfitLoss
		}
		if e.ProfitLoss.LessThan(d.WorstDay) {
			d.WorstDay = e.ProfitLoss
		}

		f, _ := e.ProfitLoss.Float64()
		daily = append(daily, f)
	}

	if d.TotalEntries > 0 {
		d.WinRate = float64(d.WinningDays) / float64(d.TotalEntries)
		d.AverageDaily = stat.Mean(daily, nil)
	}
	// Sample deviation needs two points.
	if d.TotalEntries > 1 {
		d.StdDevDaily = stat.StdDev(daily, nil)
	}
	return d
}
