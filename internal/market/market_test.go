package market

import (
	"context"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestSimulator(seed int64) *Simulator {
	return NewSimulator(SimulatorConfig{Rand: rand.New(rand.NewSource(seed)), Logger: quietLogger()})
}

func TestSimulator_SeedTable(t *testing.T) {
	s := newTestSimulator(1)

	coins := s.Snapshot(SortAll, "")
	require.Len(t, coins, 19)
	assert.Equal(t, "BNB", coins[0].Symbol)
	assert.Equal(t, "AUCTION", coins[18].Symbol)
	for _, c := range coins {
		assert.Len(t, c.Chart, chartPoints, c.Symbol)
	}
}

func TestSimulator_TickStaysWithinVolatility(t *testing.T) {
	s := newTestSimulator(42)
	before := s.Snapshot(SortAll, "")

	moved := 0
	for i := 0; i < 50; i++ {
		s.Tick()
	}
	after := s.Snapshot(SortAll, "")

	for i := range before {
		ratio := after[i].Price / before[i].Price
		assert.InDelta(t, 1, ratio, 0.06, before[i].Symbol)
		assert.InDelta(t, before[i].Change, after[i].Change, 0.6, before[i].Symbol)
		assert.Len(t, after[i].Chart, chartPoints)
		if after[i].Price != before[i].Price {
			moved++
		}
	}
	assert.Greater(t, moved, 0)
}

func TestSimulator_SnapshotIsACopy(t *testing.T) {
	s := newTestSimulator(3)

	coins := s.Snapshot(SortAll, "")
	coins[0].Price = -1
	coins[0].Chart[0] = -1

	again := s.Snapshot(SortAll, "")
	assert.NotEqual(t, -1.0, again[0].Price)
	assert.NotEqual(t, -1.0, again[0].Chart[0])
}

func TestSimulator_SortAndFilter(t *testing.T) {
	s := newTestSimulator(7)

	gainers := s.Snapshot(SortGainers, "")
	assert.Equal(t, "AT", gainers[0].Symbol)
	for i := 1; i < len(gainers); i++ {
		assert.GreaterOrEqual(t, gainers[i-1].Change, gainers[i].Change)
	}

	losers := s.Snapshot(SortLosers, "")
	assert.Equal(t, "ZEC", losers[0].Symbol)

	hot := s.Snapshot(SortHot, "")
	assert.Equal(t, []string{"BNB", "BTC", "ETH"}, []string{hot[0].Symbol, hot[1].Symbol, hot[2].Symbol})
	assert.False(t, hot[3].IsHot)

	vol := s.Snapshot(SortVolume, "")
	assert.Equal(t, "BTC", vol[0].Symbol)
	assert.Equal(t, "AT", vol[len(vol)-1].Symbol)

	found := s.Snapshot(SortAll, "coin")
	require.Len(t, found, 3)
	assert.Equal(t, "BTC", found[0].Symbol)
	assert.Equal(t, "DOGE", found[1].Symbol)
	assert.Equal(t, "LTC", found[2].Symbol)

	assert.Empty(t, s.Snapshot(SortAll, "zzz"))
}

func TestSimulator_Highlights(t *testing.T) {
	h := newTestSimulator(9).Highlights()

	assert.Equal(t, "AT", h.TopGainer.Symbol)
	assert.Equal(t, "ZEC", h.TopLoser.Symbol)
	assert.Equal(t, "BTC", h.HighVolume.Symbol)
	assert.Equal(t, "BTC", h.Trending.Symbol)
}

func TestSimulator_StartShutdown(t *testing.T) {
	s := NewSimulator(SimulatorConfig{Interval: time.Millisecond, Rand: rand.New(rand.NewSource(5)), Logger: quietLogger()})
	before := s.Snapshot(SortAll, "")

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Shutdown()

	after := s.Snapshot(SortAll, "")
	changed := false
	for i := range before {
		if before[i].Price != after[i].Price {
			changed = true
		}
	}
	assert.True(t, changed)
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.2B", 1.2},
		{"1.7T", 1700},
		{"450M", 0.45},
		{"1,000", 0.001},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseVolume(tt.in), 1e-9, tt.in)
	}
}

func TestParseSortMode(t *testing.T) {
	assert.Equal(t, SortGainers, ParseSortMode(" Gainers "))
	assert.Equal(t, SortAll, ParseSortMode("favorites"))
}

func TestProducts(t *testing.T) {
	ps := Products()
	require.Len(t, ps, 5)

	days := make([]int, len(ps))
	for i, p := range ps {
		days[i] = p.Days
	}
	assert.Equal(t, []int{7, 14, 30, 60, 90}, days)

	p := ProductFor(30)
	assert.True(t, p.APY.Equal(decimal.RequireFromString("4.8")))
	assert.True(t, p.MinAmount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, 7, ProductFor(45).Days)

	// 10000 at 8.2% for 90 days
	assert.Equal(t, "202.19", ProductFor(90).EstimatedEarnings(decimal.NewFromInt(10000)).StringFixed(2))
}

func TestQuoteFor(t *testing.T) {
	tests := []struct {
		name      string
		days      int
		principal string
		earnings  string
		meets     bool
	}{
		{name: "30 days at minimum", days: 30, principal: "5000", earnings: "19.73", meets: true},
		{name: "below minimum", days: 90, principal: "100", earnings: "2.02", meets: false},
		{name: "unknown term falls back to 7 days", days: 3, principal: "1500", earnings: "0.86", meets: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuoteFor(tt.days, decimal.RequireFromString(tt.principal))
			assert.Equal(t, tt.earnings, q.EstimatedEarnings.StringFixed(2))
			assert.Equal(t, tt.meets, q.MeetsMinimum)
			assert.Equal(t, ProductFor(tt.days), q.Product)
		})
	}
}

func TestFeed(t *testing.T) {
	now := time.Date(2024, 3, 9, 8, 5, 7, 0, time.UTC)
	f := NewFeed(FeedConfig{Rand: rand.New(rand.NewSource(11)), Now: func() time.Time { return now }, Logger: quietLogger()})

	records := f.Records()
	require.Len(t, records, feedSize)

	f.Tick()
	after := f.Records()
	require.Len(t, after, feedSize)
	assert.Equal(t, records[:feedSize-1], after[1:])

	for _, r := range after {
		assert.True(t, strings.HasSuffix(r.User, "***"))
		assert.Contains(t, feedActions, r.Action)
		assert.GreaterOrEqual(t, r.Amount, int64(100))
		assert.Less(t, r.Amount, int64(50000))
		assert.Equal(t, "08:05:07", r.Time)
		assert.Equal(t, "Mar 9", r.Date)
	}
}
