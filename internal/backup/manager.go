package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/storage"
)

const timestampLayout = "20060102T150405.000Z"

// ErrBusy is returned by Trigger while another backup is running.
var ErrBusy = errors.New("backup already in progress")

// Exporter produces the document to back up.
type Exporter interface {
	Export(ctx context.Context) ([]byte, error)
}

// Manager periodically uploads document store exports to object storage.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Trigger(ctx context.Context) (*Result, error)
}

type Config struct {
	Bucket    string
	KeyPrefix string
	Interval  time.Duration
	Keep      int
	Now       func() time.Time
	Logger    *logrus.Logger
}

type Result struct {
	Location string    `json:"location"`
	Key      string    `json:"key"`
	Size     int       `json:"size"`
	Pruned   int       `json:"pruned"`
	TakenAt  time.Time `json:"takenAt"`
}

type manager struct {
	cfg      Config
	exporter Exporter
	storage  storage.Service

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(cfg Config, exporter Exporter, storage storage.Service) Manager {
	if cfg.Keep <= 0 {
		cfg.Keep = 10
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &manager{
		cfg:      cfg,
		exporter: exporter,
		storage:  storage,
		sem:      make(chan struct{}, 1),
	}
}

// Start begins periodic backups. A zero interval leaves only Trigger active.
func (m *manager) Start(ctx context.Context) error {
	if m.cfg.Bucket == "" {
		return fmt.Errorf("backup bucket is required")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	if m.cfg.Interval <= 0 {
		m.cfg.Logger.Info("backup manager started, periodic backups disabled")
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Trigger(m.ctx); err != nil && !errors.Is(err, ErrBusy) && m.ctx.Err() == nil {
					m.cfg.Logger.Errorf("scheduled backup failed: %v", err)
				}
			}
		}
	}()
	m.cfg.Logger.Infof("backup manager started, bucket: %s, interval: %s", m.cfg.Bucket, m.cfg.Interval)
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("backup manager stopped")
}

// Trigger runs one backup now. Only one backup runs at a time.
func (m *manager) Trigger(ctx context.Context) (*Result, error) {
	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	default:
		return nil, ErrBusy
	}

	if m.cfg.Bucket == "" {
		return nil, fmt.Errorf("backup bucket is required")
	}

	takenAt := m.cfg.Now().UTC()
	logger := m.cfg.Logger.WithField("bucket", m.cfg.Bucket)

	doc, err := m.exporter.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export documents: %w", err)
	}

	key := m.objectKey(takenAt)
	location, err := m.storage.PutObject(ctx, m.cfg.Bucket, key, doc)
	if err != nil {
		return nil, fmt.Errorf("upload backup: %w", err)
	}
	logger.WithField("key", key).Infof("backup uploaded (%d bytes)", len(doc))

	pruned, err := m.prune(ctx)
	if err != nil {
		// pruning is retried on the next backup
		logger.Warnf("prune backups: %v", err)
	}

	return &Result{
		Location: location,
		Key:      key,
		Size:     len(doc),
		Pruned:   pruned,
		TakenAt:  takenAt,
	}, nil
}

func (m *manager) objectKey(t time.Time) string {
	name := fmt.Sprintf("trustio-%s.json", t.Format(timestampLayout))
	if m.cfg.KeyPrefix == "" {
		return name
	}
	return m.cfg.KeyPrefix + "/" + name
}

func (m *manager) listPrefix() string {
	if m.cfg.KeyPrefix == "" {
		return "trustio-"
	}
	return m.cfg.KeyPrefix + "/trustio-"
}

// prune keeps the newest Keep backups. Keys sort chronologically.
func (m *manager) prune(ctx context.Context) (int, error) {
	objects, err := m.storage.ListObjects(ctx, m.cfg.Bucket, m.listPrefix())
	if err != nil {
		return 0, err
	}
	if len(objects) <= m.cfg.Keep {
		return 0, nil
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)

	stale := keys[:len(keys)-m.cfg.Keep]
	if err := m.storage.DeleteObjects(ctx, m.cfg.Bucket, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}
