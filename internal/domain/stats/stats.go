package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"mentor/internal/domain/trade"
)

// PairStats aggregates performance for a single instrument
type PairStats struct {
	Pair       string
	Count      int
	NetPL      decimal.Decimal
	AvgPL      decimal.Decimal
}

// DirectionStats aggregates performance for long or short trades
type DirectionStats struct {
	Direction trade.Direction
	Count     int
	NetPL     decimal.Decimal
	AvgPL     decimal.Decimal
}

// Summary is a deterministic aggregate over a set of trades.
// HasData is false for an empty set; all other fields are zero then.
type Summary struct {
	HasData     bool
	TotalTrades int
	Wins        int
	Losses      int
	Breakevens  int

	// Effective counts fold breakevens with a signed P/L into the
	// win or loss column
	EffectiveWins   int
	EffectiveLosses int

	// WinRate and LossRate use effective counts over all trades
	WinRate  float64
	LossRate float64

	NetProfitLoss decimal.Decimal
	AvgWin        decimal.Decimal
	AvgLoss       decimal.Decimal
	RiskReward    decimal.Decimal

	LongestWinStreak  int
	LongestLossStreak int
	CurrentStreak     int // positive for wins, negative for losses

	MostTradedPair string
	// BestPair and WorstPair rank pairs by average P/L and require
	// at least two trades on the pair; empty when nothing qualifies
	BestPair  string
	WorstPair string

	ByPair      []PairStats
	ByDirection []DirectionStats
}

func isEffectiveWin(t *trade.Trade) bool {
	return t.Result == trade.ResultWin ||
		(t.Result == trade.ResultBreakeven && t.ProfitLoss.IsPositive())
}

func isEffectiveLoss(t *trade.Trade) bool {
	return t.Result == trade.ResultLoss ||
		(t.Result == trade.ResultBreakeven && t.ProfitLoss.IsNegative())
}

// Compute builds a Summary over trades. It is a pure function of its
// input and never touches storage.
func Compute(trades []*trade.Trade) Summary {
	if len(trades) == 0 {
		return Summary{}
	}

	s := Summary{HasData: true, TotalTrades: len(trades)}

	var winSum, lossSum decimal.Decimal
	var winN, lossN int

	pairNet := make(map[string]decimal.Decimal)
	pairCount := make(map[string]int)
	dirNet := make(map[trade.Direction]decimal.Decimal)
	dirCount := make(map[trade.Direction]int)

	for _, t := range trades {
		switch t.Result {
		case trade.ResultWin:
			s.Wins++
		case trade.ResultLoss:
			s.Losses++
		case trade.ResultBreakeven:
			s.Breakevens++
		}
		if isEffectiveWin(t) {
			s.EffectiveWins++
			winSum = winSum.Add(t.ProfitLoss)
			winN++
		}
		if isEffectiveLoss(t) {
			s.EffectiveLosses++
			lossSum = lossSum.Add(t.ProfitLoss)
			lossN++
		}
		s.NetProfitLoss = s.NetProfitLoss.Add(t.ProfitLoss)

		pairNet[t.Pair] = pairNet[t.Pair].Add(t.ProfitLoss)
		pairCount[t.Pair]++
		dirNet[t.Direction] = dirNet[t.Direction].Add(t.ProfitLoss)
		dirCount[t.Direction]++
	}

	s.WinRate = round2(float64(s.EffectiveWins) / float64(s.TotalTrades) * 100)
	s.LossRate = round2(float64(s.EffectiveLosses) / float64(s.TotalTrades) * 100)

	if winN > 0 {
		s.AvgWin = winSum.Div(decimal.NewFromInt(int64(winN)))
	}
	if lossN > 0 {
		s.AvgLoss = lossSum.Div(decimal.NewFromInt(int64(lossN))).Abs()
	}
	if s.AvgLoss.IsPositive() {
		s.RiskReward = s.AvgWin.Div(s.AvgLoss)
	}

	s.LongestWinStreak, s.LongestLossStreak, s.CurrentStreak = streaks(trades)

	for pair, n := range pairCount {
		ps := PairStats{
			Pair:  pair,
			Count: n,
			NetPL: pairNet[pair],
			AvgPL: pairNet[pair].Div(decimal.NewFromInt(int64(n))),
		}
		s.ByPair = append(s.ByPair, ps)
	}
	sort.Slice(s.ByPair, func(i, j int) bool {
		if s.ByPair[i].Count != s.ByPair[j].Count {
			return s.ByPair[i].Count > s.ByPair[j].Count
		}
		return s.ByPair[i].Pair < s.ByPair[j].Pair
	})
	if len(s.ByPair) > 0 {
		s.MostTradedPair = s.ByPair[0].Pair
	}
	s.BestPair, s.WorstPair = rankPairs(s.ByPair)

	for dir, n := range dirCount {
		s.ByDirection = append(s.ByDirection, DirectionStats{
			Direction: dir,
			Count:     n,
			NetPL:     dirNet[dir],
			AvgPL:     dirNet[dir].Div(decimal.NewFromInt(int64(n))),
		})
	}
	sort.Slice(s.ByDirection, func(i, j int) bool {
		return s.ByDirection[i].Direction < s.ByDirection[j].Direction
	})

	return s
}

// rankPairs picks the best and worst pair by average P/L among pairs
// with at least two trades
func rankPairs(pairs []PairStats) (best, worst string) {
	var bestAvg, worstAvg decimal.Decimal
	for _, p := range pairs {
		if p.Count < 2 {
			continue
		}
		if best == "" || p.AvgPL.GreaterThan(bestAvg) {
			best, bestAvg = p.Pair, p.AvgPL
		}
		if worst == "" || p.AvgPL.LessThan(worstAvg) {
			worst, worstAvg = p.Pair, p.AvgPL
		}
	}
	return best, worst
}

func streaks(trades []*trade.Trade) (longestWin, longestLoss, current int) {
	for _, t := range trades {
		switch {
		case isEffectiveWin(t):
			if current > 0 {
				current++
			} else {
				current = 1
			}
			if current > longestWin {
				longestWin = current
			}
		case isEffectiveLoss(t):
			if current < 0 {
				current--
			} else {
				current = -1
			}
			if -current > longestLoss {
				longestLoss = -current
			}
		default:
			current = 0
		}
	}
	return longestWin, longestLoss, current
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// WeekSummary narrows a Summary for the weekly report. Its win rate
// excludes flat breakevens from the denominator so a week of pure
// scratches does not read as 0% wins.
type WeekSummary struct {
	Summary
	CountedTrades  int
	WeeklyWinRate  float64
}

// ComputeWeek builds the weekly aggregate over trades within one
// report window.
func ComputeWeek(trades []*trade.Trade) WeekSummary {
	w := WeekSummary{Summary: Compute(trades)}
	if !w.HasData {
		return w
	}
	flat := 0
	for _, t := range trades {
		if t.Result == trade.ResultBreakeven && t.ProfitLoss.IsZero() {
			flat++
		}
	}
	w.CountedTrades = w.TotalTrades - flat
	if w.CountedTrades > 0 {
		w.WeeklyWinRate = round2(float64(w.EffectiveWins) / float64(w.CountedTrades) * 100)
	}
	return w
}
