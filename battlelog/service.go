package battlelog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kasuganosora/battlecore/game/battle"
	"github.com/kasuganosora/battlecore/model"
)

// Summary is a finished battle ready to be persisted.
type Summary struct {
	BattleID  string
	Seed      int64
	Format    battle.Format
	Wild      bool
	Result    battle.Result
	Turns     int
	Snapshot  battle.BattleSnapshot
	Log       []battle.ActionLogEntry
	StartedAt time.Time
	EndedAt   time.Time
	// Events, when captured, fill BattleAction.Detail by sequence number.
	Events []battle.Notification
}

// SummaryOf collects the persisted parts of b.
func SummaryOf(b *battle.Battle, startedAt time.Time, events []battle.Notification) Summary {
	snap := b.Snapshot()
	return Summary{
		BattleID:  b.ID(),
		Seed:      b.Seed(),
		Format:    b.Format(),
		Wild:      b.Wild(),
		Result:    b.Result(),
		Turns:     b.Turn(),
		Snapshot:  snap,
		Log:       b.ActionLog(),
		StartedAt: startedAt,
		EndedAt:   time.Now(),
		Events:    events,
	}
}

// Options tunes the batched writer. Zero values pick the defaults.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
}

// Service writes battle records asynchronously in batches.
type Service struct {
	db        *gorm.DB
	ch        chan *model.BattleRecord
	stopCh    chan struct{}
	wg        sync.WaitGroup
	logger    *zap.Logger
	batchSize int
	interval  time.Duration
}

// New creates a new battle log Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	svc := &Service{
		db:        db,
		ch:        make(chan *model.BattleRecord, opts.QueueSize),
		stopCh:    make(chan struct{}),
		logger:    logger,
		batchSize: opts.BatchSize,
		interval:  opts.FlushInterval,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Save enqueues a battle for async DB write. It reports false when the
// queue is full and the record was dropped.
func (svc *Service) Save(s Summary) bool {
	record := toRecord(s)
	select {
	case svc.ch <- record:
		return true
	default:
		svc.logger.Warn("battle log channel full, dropping record",
			zap.String("battle_id", s.BattleID))
		return false
	}
}

// Load reads a stored battle with its actions in sequence order.
func (svc *Service) Load(ctx context.Context, battleID string) (*model.BattleRecord, error) {
	var rec model.BattleRecord
	err := svc.db.WithContext(ctx).
		Preload("Actions", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq") }).
		Where("battle_id = ?", battleID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Stop flushes remaining records and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]*model.BattleRecord, 0, svc.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("battle log batch write failed",
				zap.Int("records", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.ch:
			batch = append(batch, rec)
			if len(batch) >= svc.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining records.
			for {
				select {
				case rec := <-svc.ch:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

func toRecord(s Summary) *model.BattleRecord {
	snapJSON, _ := json.Marshal(s.Snapshot)
	details := make(map[int]datatypes.JSON, len(s.Events))
	for _, n := range s.Events {
		if raw, err := json.Marshal(n.Event); err == nil {
			details[n.Seq] = datatypes.JSON(raw)
		}
	}
	rec := &model.BattleRecord{
		BattleID:  s.BattleID,
		Seed:      s.Seed,
		Format:    int(s.Format),
		Wild:      s.Wild,
		Result:    s.Result.String(),
		Turns:     s.Turns,
		Snapshot:  datatypes.JSON(snapJSON),
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Actions:   make([]model.BattleAction, 0, len(s.Log)),
	}
	for _, e := range s.Log {
		rec.Actions = append(rec.Actions, model.BattleAction{
			BattleID: s.BattleID,
			Seq:      e.Seq,
			Turn:     e.Turn,
			Kind:     e.Kind,
			ActorID:  e.ActorID,
			MoveID:   e.MoveID,
			TargetID: e.TargetID,
			Amount:   e.Amount,
			Outcome:  e.Outcome,
			Detail:   details[e.Seq],
		})
	}
	return rec
}
