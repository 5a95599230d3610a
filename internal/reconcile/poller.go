package reconcile

import (
	"context"
	"time"

	chargedomain "github.com/pixelpay/topup/internal/charge/domain"
	"github.com/pixelpay/topup/internal/clock"
	"github.com/pixelpay/topup/internal/config"
	obsmetrics "github.com/pixelpay/topup/internal/observability/metrics"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Clock      clock.Clock
	TxnSvc     transactiondomain.Service
	ChargeSvc  chargedomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Poller periodically re-checks PENDING transactions that have a
// charge id attached and have aged past the grace period. Webhooks are
// the fast path; this is the fallback for the ones that never arrive.
type Poller struct {
	log        *zap.Logger
	cfg        config.ReconcileConfig
	clock      clock.Clock
	txnSvc     transactiondomain.Service
	chargeSvc  chargedomain.Service
	obsMetrics *obsmetrics.Metrics

	stop chan struct{}
	done chan struct{}
}

func New(p Params) *Poller {
	return &Poller{
		log:        p.Log.Named("reconcile.poller"),
		cfg:        p.Cfg.Reconcile,
		clock:      p.Clock,
		txnSvc:     p.TxnSvc,
		chargeSvc:  p.ChargeSvc,
		obsMetrics: p.ObsMetrics,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Sweep runs one reconciliation pass and returns how many transactions
// were settled. Provider errors on individual charges are logged and
// skipped; the next sweep retries them.
func (p *Poller) Sweep(ctx context.Context) (int, error) {
	cutoff := p.clock.Now().Add(-p.cfg.GracePeriod)

	pending, err := p.txnSvc.ListPendingForReconcile(ctx, cutoff, p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	var settled int
	for _, txn := range pending {
		if txn.ChargeID == nil {
			continue
		}

		result, err := p.chargeSvc.CheckStatus(ctx, *txn.ChargeID, "reconcile")
		if err != nil {
			p.log.Warn("reconcile check failed",
				zap.Int64("transaction_id", txn.ID),
				zap.String("charge_id", *txn.ChargeID),
				zap.Error(err),
			)
			continue
		}
		if result.Settled {
			settled++
		}
	}

	p.obsMetrics.RecordReconcileRun()
	if len(pending) > 0 {
		p.log.Info("reconcile sweep finished",
			zap.Int("checked", len(pending)),
			zap.Int("settled", settled),
		)
	}
	return settled, nil
}

func (p *Poller) run() {
	defer close(p.done)

	interval := p.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if _, err := p.Sweep(ctx); err != nil {
				p.log.Error("reconcile sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func registerHooks(lc fx.Lifecycle, p *Poller) {
	if !p.cfg.Enabled {
		p.log.Info("reconcile poller disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go p.run()
			p.log.Info("reconcile poller started",
				zap.Duration("interval", p.cfg.Interval),
				zap.Duration("grace_period", p.cfg.GracePeriod),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(p.stop)
			select {
			case <-p.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}

var Module = fx.Module("reconcile",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
