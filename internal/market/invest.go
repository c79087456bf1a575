package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Product is one row of the staking rate table. Nothing is ever staked.
type Product struct {
	Days      int             `json:"days"`
	APY       decimal.Decimal `json:"apy"`
	MinAmount decimal.Decimal `json:"minAmount"`
}

var products = []Product{
	{Days: 7, APY: decimal.RequireFromString("3.00"), MinAmount: decimal.NewFromInt(1500)},
	{Days: 14, APY: decimal.RequireFromString("3.85"), MinAmount: decimal.NewFromInt(2500)},
	{Days: 30, APY: decimal.RequireFromString("4.80"), MinAmount: decimal.NewFromInt(5000)},
	{Days: 60, APY: decimal.RequireFromString("6.50"), MinAmount: decimal.NewFromInt(8000)},
	{Days: 90, APY: decimal.RequireFromString("8.20"), MinAmount: decimal.NewFromInt(12000)},
}

func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// ProductFor returns the product for days, or the 7 day product when none matches.
func ProductFor(days int) Product {
	for _, p := range products {
		if p.Days == days {
			return p
		}
	}
	return products[0]
}

// EstimatedEarnings is the simple interest principal earns over the product term.
func (p Product) EstimatedEarnings(principal decimal.Decimal) decimal.Decimal {
	return principal.
		Mul(p.APY).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(p.Days))).
		Div(decimal.NewFromInt(365)).
		Round(2)
}

// Quote is the staking estimate shown for a principal on a chosen term.
type Quote struct {
	Product
	Principal         decimal.Decimal `json:"principal"`
	EstimatedEarnings decimal.Decimal `json:"estimatedEarnings"`
	MeetsMinimum      bool            `json:"meetsMinimum"`
}

func QuoteFor(days int, principal decimal.Decimal) Quote {
	p := ProductFor(days)
	return Quote{
		Product:           p,
		Principal:         principal,
		EstimatedEarnings: p.EstimatedEarnings(principal),
		MeetsMinimum:      !principal.LessThan(p.MinAmount),
	}
}

const feedSize = 7

var (
	feedUsers   = []string{"3n", "8g", "wi", "g6", "7t", "kj", "9m", "ax", "lp", "zr"}
	feedActions = []string{"Staking Reward", "Withdraw", "Deposit", "Transfer"}
)

// Record is one entry of the live activity feed.
type Record struct {
	ID     string `json:"id"`
	User   string `json:"user"`
	Action string `json:"action"`
	Amount int64  `json:"amount"`
	Time   string `json:"time"`
	Date   string `json:"date"`
}

type FeedConfig struct {
	Interval time.Duration
	Rand     *rand.Rand
	Now      func() time.Time
	Logger   *logrus.Logger
}

// Feed keeps the newest feedSize random records, newest first.
type Feed struct {
	cfg FeedConfig

	mu      sync.RWMutex
	rng     *rand.Rand
	records []Record

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewFeed(cfg FeedConfig) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = 2500 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	f := &Feed{cfg: cfg, rng: rng}
	f.records = make([]Record, feedSize)
	for i := range f.records {
		f.records[i] = f.generate()
	}
	return f
}

func (f *Feed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Tick()
			}
		}
	}()
	f.cfg.Logger.Infof("invest feed started, interval: %s", f.cfg.Interval)
}

func (f *Feed) Shutdown() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
	f.cfg.Logger.Info("invest feed stopped")
}

// Tick prepends one new record and drops the oldest.
func (f *Feed) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]Record, 0, feedSize)
	next = append(next, f.generate())
	next = append(next, f.records[:feedSize-1]...)
	f.records = next
}

func (f *Feed) Records() []Record {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f *Feed) generate() Record {
	now := f.cfg.Now()
	return Record{
		ID:     uuid.NewString(),
		User:   feedUsers[f.rng.Intn(len(feedUsers))] + "***",
		Action: feedActions[f.rng.Intn(len(feedActions))],
		Amount: 100 + f.rng.Int63n(50000-100),
		Time:   now.Format("15:04:05"),
		Date:   now.Format("Jan 2"),
	}
}
