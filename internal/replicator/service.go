package replicator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"go.opentelemetry.io/otel"

	"github.com/tmdiallo/stockalerte/internal/model"
	"github.com/tmdiallo/stockalerte/internal/netwatch"
	"github.com/tmdiallo/stockalerte/internal/remote"
	"github.com/tmdiallo/stockalerte/internal/store"
)

var tracer = otel.Tracer("internal/replicator")

// Result summarizes one drain pass.
type Result struct {
	Synced int `json:"synced"`
}

// Service keeps the remote mirror eventually consistent with the local store.
// Local writes are the commit point; callers hand the finished mutation to
// Submit and never observe remote outcomes. Failed remote calls land in the
// durable sync queue and are replayed by Drain.
type Service struct {
	logger *slog.Logger
	store  *store.Store
	remote remote.Client
	bus    evbus.Bus

	drainMu  sync.Mutex
	tasks    chan model.SyncOp
	stopChan chan struct{}
	onOnline func()
}

func NewService(logger *slog.Logger, st *store.Store, rc remote.Client, bus evbus.Bus, taskBuffer int) *Service {
	if taskBuffer <= 0 {
		taskBuffer = 256
	}
	return &Service{
		logger:   logger.With(slog.String("service", "replicator")),
		store:    st,
		remote:   rc,
		bus:      bus,
		tasks:    make(chan model.SyncOp, taskBuffer),
		stopChan: make(chan struct{}),
	}
}

type CleanupFunc func()

// Run starts the replication worker and subscribes to connectivity-restored
// events, which trigger a drain. The returned cleanup stops the worker; a
// drain interrupted by shutdown leaves its entries for the next pass.
func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.onOnline = func() {
		go func() {
			if _, err := s.Drain(ctx); err != nil {
				s.logger.ErrorContext(ctx, "drain after reconnect failed", slog.Any("error", err))
			}
		}()
	}
	if err := s.bus.Subscribe(netwatch.TopicOnline, s.onOnline); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", netwatch.TopicOnline, err)
	}

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		if err := s.bus.Unsubscribe(netwatch.TopicOnline, s.onOnline); err != nil {
			s.logger.Error("unsubscribe online topic", slog.Any("error", err))
		}
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
		}
		cancel()
	}, nil
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case op := <-s.tasks:
			s.replicate(ctx, op)
		}
	}
}

// Submit schedules replication of an already-committed local mutation. It
// never blocks and never fails the caller: when the worker is saturated the
// operation goes straight to the durable queue.
func (s *Service) Submit(op model.SyncOp) {
	select {
	case s.tasks <- op:
	default:
		s.enqueue(op)
	}
}

// replicate attempts the immediate remote call and falls back to the queue.
func (s *Service) replicate(ctx context.Context, op model.SyncOp) {
	err := s.dispatch(ctx, op)
	if err == nil {
		return
	}

	if remote.IsDuplicate(err) {
		s.logger.InfoContext(ctx, "remote already has this record, skipping",
			slog.String("action", string(op.Action())))
		return
	}

	s.logger.WarnContext(ctx, "remote call failed, queueing for replay",
		slog.String("action", string(op.Action())),
		slog.Any("error", err))
	s.enqueue(op)
}

func (s *Service) enqueue(op model.SyncOp) {
	if _, err := s.store.Enqueue(op); err != nil {
		// The local mutation already succeeded; all that can be done here
		// is record that this operation will never reach the mirror.
		s.logger.Error("failed to persist sync queue entry",
			slog.String("action", string(op.Action())),
			slog.Any("error", err))
	}
}

// Drain replays all pending queue entries in enqueue order. Drains are
// single-flight: a trigger while one is running returns immediately. An empty
// queue is a successful no-op. A duplicate-key rejection removes the entry as
// already applied; any other per-entry failure leaves it queued and the pass
// continues with later entries. Only failing to read the queue is an error.
func (s *Service) Drain(ctx context.Context) (Result, error) {
	if !s.drainMu.TryLock() {
		s.logger.DebugContext(ctx, "drain already in flight, skipping")
		return Result{}, nil
	}
	defer s.drainMu.Unlock()

	ctx, span := tracer.Start(ctx, "Replicator.Drain")
	defer span.End()

	entries, err := s.store.ListPending()
	if err != nil {
		return Result{}, fmt.Errorf("list pending sync entries: %w", err)
	}
	if len(entries) == 0 {
		return Result{}, nil
	}

	s.logger.InfoContext(ctx, "draining sync queue", slog.Int("pending", len(entries)))

	var synced int
	for _, entry := range entries {
		op, err := entry.Op()
		if err != nil {
			s.logger.ErrorContext(ctx, "undecodable sync queue entry, leaving in place",
				slog.Uint64("entry_id", entry.ID),
				slog.Any("error", err))
			continue
		}

		if err := s.dispatch(ctx, op); err != nil {
			if !remote.IsDuplicate(err) {
				s.logger.WarnContext(ctx, "replay failed, keeping entry for next drain",
					slog.Uint64("entry_id", entry.ID),
					slog.String("action", string(entry.ActionTag)),
					slog.Any("error", err))
				continue
			}
			s.logger.InfoContext(ctx, "replay hit duplicate key, treating as applied",
				slog.Uint64("entry_id", entry.ID))
		}

		if err := s.store.RemoveFromQueue(entry.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove replayed entry",
				slog.Uint64("entry_id", entry.ID),
				slog.Any("error", err))
			continue
		}
		synced++
	}

	s.logger.InfoContext(ctx, "drain finished",
		slog.Int("synced", synced),
		slog.Int("remaining", len(entries)-synced))

	return Result{Synced: synced}, nil
}

// dispatch issues the remote call matching the operation. The switch is
// exhaustive over the sync op variants.
func (s *Service) dispatch(ctx context.Context, op model.SyncOp) error {
	switch op := op.(type) {
	case model.AddProductOp:
		return s.remote.InsertProduct(ctx, op.Product)
	case model.UpdateProductOp:
		return s.remote.UpdateProduct(ctx, op.Product)
	case model.DeleteProductOp:
		return s.remote.DeleteProduct(ctx, op.ID)
	case model.AddTransactionOp:
		return s.remote.InsertTransaction(ctx, op.Transaction)
	default:
		return fmt.Errorf("unhandled sync op type %T", op)
	}
}
