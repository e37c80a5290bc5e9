package miner

import (
	"encoding/binary"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/pbaas"
	"github.com/chronodrachma/verushash/pkg/core/types"
	"github.com/chronodrachma/verushash/pkg/metrics"
	"github.com/chronodrachma/verushash/pkg/verushash"
)

// metricsBatch is how many hashes a worker counts locally before
// publishing them.
const metricsBatch = 1024

var ErrShortTemplate = errors.New("template is shorter than a block header")

// Stats is a snapshot of the miner's progress.
type Stats struct {
	Hashes    uint64
	Rejected  uint64
	Best      types.Hash
	BestNonce uint64
	Elapsed   time.Duration
}

// HashRate returns hashes per second over the elapsed time.
func (s Stats) HashRate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Hashes) / s.Elapsed.Seconds()
}

// Miner scans nonces over a header+solution template with a pool of
// workers. Each worker owns its buffer; PBaaS templates are re-sealed after
// every nonce change so their commitment keeps verifying.
type Miner struct {
	engines  *verushash.Engines
	variant  consensus.Variant
	template []byte
	sealable bool
	threads  int
	metrics  *metrics.Metrics
	log      *zap.Logger

	hashes   atomic.Uint64
	rejected atomic.Uint64

	mu        sync.Mutex
	best      types.Hash
	bestNonce uint64
	started   time.Time
	stopped   time.Time

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMiner copies template and prepares a pool of threads workers.
// threads <= 0 uses one worker per CPU. m may be nil.
func NewMiner(engines *verushash.Engines, variant consensus.Variant, template []byte, threads int, m *metrics.Metrics, log *zap.Logger) (*Miner, error) {
	if len(template) < pbaas.HeaderSize {
		return nil, ErrShortTemplate
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := append([]byte(nil), template...)
	return &Miner{
		engines:  engines,
		variant:  variant,
		template: t,
		sealable: pbaas.Seal(append([]byte(nil), t...)) == nil,
		threads:  threads,
		metrics:  m,
		log:      log,
		best:     types.SentinelHash,
		quit:     make(chan struct{}),
	}, nil
}

func (m *Miner) Start() {
	m.log.Info("miner started",
		zap.Int("threads", m.threads),
		zap.Stringer("variant", m.variant),
		zap.Bool("pbaas", m.sealable),
	)
	m.mu.Lock()
	m.started = time.Now()
	m.mu.Unlock()
	for i := 0; i < m.threads; i++ {
		m.wg.Add(1)
		go m.worker(uint64(i) << 56)
	}
}

func (m *Miner) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()
		m.mu.Lock()
		m.stopped = time.Now()
		m.mu.Unlock()
		s := m.Stats()
		m.log.Info("miner stopped",
			zap.Uint64("hashes", s.Hashes),
			zap.Float64("hashrate", s.HashRate()),
			zap.String("best", s.Best.ReverseHex()),
		)
	})
}

// Stats returns the progress so far.
func (m *Miner) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := m.stopped
	if end.IsZero() {
		end = time.Now()
	}
	var elapsed time.Duration
	if !m.started.IsZero() {
		elapsed = end.Sub(m.started)
	}
	return Stats{
		Hashes:    m.hashes.Load(),
		Rejected:  m.rejected.Load(),
		Best:      m.best,
		BestNonce: m.bestNonce,
		Elapsed:   elapsed,
	}
}

func (m *Miner) worker(nonce uint64) {
	defer m.wg.Done()

	work := make([]byte, len(m.template))
	var pending uint64
	defer func() { m.metrics.AddHashes(pending) }()

	for {
		select {
		case <-m.quit:
			return
		default:
			copy(work, m.template)
			binary.LittleEndian.PutUint64(work[pbaas.NonceOffset:], nonce)
			if m.sealable {
				if err := pbaas.Seal(work); err != nil {
					m.log.Error("reseal failed", zap.Error(err))
					return
				}
			}

			digest, err := m.engines.HashVariant(m.variant, work)
			if err != nil {
				m.log.Error("miner hasher error", zap.Error(err))
				return
			}
			m.hashes.Add(1)
			if digest.IsSentinel() {
				m.rejected.Add(1)
			} else {
				m.offer(digest, nonce)
			}

			pending++
			if pending == metricsBatch {
				m.metrics.AddHashes(pending)
				pending = 0
			}
			nonce++
		}
	}
}

func (m *Miner) offer(digest types.Hash, nonce uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if digest.Less(m.best) {
		m.best = digest
		m.bestNonce = nonce
	}
}
