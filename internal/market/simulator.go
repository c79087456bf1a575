package market

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	chartPoints     = 25
	moveProbability = 0.4
	volatility      = 0.002
	changeDrift     = 0.02
)

// Coin is one row of the simulated ticker.
type Coin struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Fiat      float64   `json:"fiat"`
	Change    float64   `json:"change"`
	IsHot     bool      `json:"isHot"`
	Decimals  int       `json:"decimals"`
	Volume    string    `json:"volume"`
	Tag       string    `json:"tag"`
	MarketCap string    `json:"marketCap"`
	Supply    string    `json:"supply"`
	Dominance string    `json:"dominance"`
	Flash     string    `json:"flash,omitempty"`
	Chart     []float64 `json:"chart"`
}

type SortMode string

const (
	SortAll     SortMode = "all"
	SortHot     SortMode = "hot"
	SortGainers SortMode = "gainers"
	SortLosers  SortMode = "losers"
	SortVolume  SortMode = "volume"
)

// ParseSortMode falls back to SortAll for unknown input.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortHot, SortGainers, SortLosers, SortVolume:
		return m
	}
	return SortAll
}

// Highlights are the headline cards shown above the ticker.
type Highlights struct {
	TopGainer  Coin `json:"topGainer"`
	TopLoser   Coin `json:"topLoser"`
	HighVolume Coin `json:"highVolume"`
	Trending   Coin `json:"trending"`
}

type SimulatorConfig struct {
	Interval time.Duration
	Rand     *rand.Rand
	Logger   *logrus.Logger
}

// Simulator random-walks a fixed coin table. It shares no state with the ledger.
type Simulator struct {
	cfg SimulatorConfig

	mu    sync.RWMutex
	coins []Coin
	rng   *rand.Rand

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	coins := make([]Coin, len(seedCoins))
	for i, c := range seedCoins {
		c.Chart = make([]float64, chartPoints)
		for j := range c.Chart {
			c.Chart[j] = 100 + rng.Float64()*50 - 25
		}
		coins[i] = c
	}

	return &Simulator{cfg: cfg, coins: coins, rng: rng}
}

// Start ticks the table on the configured interval until ctx ends or Shutdown is called.
func (s *Simulator) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
	s.cfg.Logger.Infof("market simulator started, interval: %s", s.cfg.Interval)
}

func (s *Simulator) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.cfg.Logger.Info("market simulator stopped")
}

// Tick moves each coin with probability 0.4 and clears last tick's flash.
func (s *Simulator) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.coins {
		c := &s.coins[i]
		c.Flash = ""
		if s.rng.Float64() >= moveProbability {
			continue
		}
		factor := 1 + (s.rng.Float64()-0.5)*volatility
		next := c.Price * factor
		if next > c.Price {
			c.Flash = "green"
		} else {
			c.Flash = "red"
		}
		c.Price = next
		c.Fiat *= factor
		c.Change += (s.rng.Float64() - 0.5) * changeDrift

		chart := make([]float64, 0, chartPoints)
		chart = append(chart, c.Chart[1:]...)
		c.Chart = append(chart, next)
	}
}

// Snapshot returns a copy of the table filtered by query (symbol or name) and ordered by mode.
func (s *Simulator) Snapshot(mode SortMode, query string) []Coin {
	s.mu.RLock()
	out := make([]Coin, 0, len(s.coins))
	q := strings.ToLower(strings.TrimSpace(query))
	for _, c := range s.coins {
		if q != "" && !strings.Contains(strings.ToLower(c.Symbol), q) && !strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		out = append(out, cloneCoin(c))
	}
	s.mu.RUnlock()

	switch mode {
	case SortGainers:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Change > out[j].Change })
	case SortLosers:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Change < out[j].Change })
	case SortHot:
		sort.SliceStable(out, func(i, j int) bool { return out[i].IsHot && !out[j].IsHot })
	case SortVolume:
		sort.SliceStable(out, func(i, j int) bool { return parseVolume(out[i].Volume) > parseVolume(out[j].Volume) })
	}
	return out
}

func (s *Simulator) Highlights() Highlights {
	coins := s.Snapshot(SortAll, "")
	var h Highlights
	if len(coins) == 0 {
		return h
	}
	h.TopGainer, h.TopLoser, h.HighVolume, h.Trending = coins[0], coins[0], coins[0], coins[0]
	for _, c := range coins {
		if c.Change > h.TopGainer.Change {
			h.TopGainer = c
		}
		if c.Change < h.TopLoser.Change {
			h.TopLoser = c
		}
		if parseVolume(c.Volume) > parseVolume(h.HighVolume.Volume) {
			h.HighVolume = c
		}
		if c.Symbol == "BTC" {
			h.Trending = c
		}
	}
	return h
}

// parseVolume converts "1.2B" style figures to billions.
func parseVolume(vol string) float64 {
	v := strings.ReplaceAll(strings.TrimSpace(vol), ",", "")
	if v == "" {
		return 0
	}
	scale := 1.0 / 1_000_000
	switch v[len(v)-1] {
	case 'T':
		scale = 1000
		v = v[:len(v)-1]
	case 'B':
		scale = 1
		v = v[:len(v)-1]
	case 'M':
		scale = 1.0 / 1000
		v = v[:len(v)-1]
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n * scale
}

func cloneCoin(c Coin) Coin {
	chart := make([]float64, len(c.Chart))
	copy(chart, c.Chart)
	c.Chart = chart
	return c
}
