package reflector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/l2reflect/reflect/internal/constants"
	"github.com/l2reflect/reflect/internal/ebpfxdp"
	"github.com/l2reflect/reflect/internal/logging"
	"github.com/l2reflect/reflect/internal/platform"
	"github.com/l2reflect/reflect/internal/privdrop"
	"github.com/l2reflect/reflect/internal/ring"
	"github.com/l2reflect/reflect/internal/worker"
)

// State is a Controller's point in its one-way lifecycle.
type State int

const (
	Uninit State = iota
	Initialized
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "uninit"
	}
}

// Controller drives the full lifecycle: resolve the interface, allocate
// one worker per NIC receive queue (falling back to a single worker on
// the copying driver when zero-copy init fails), run them until stopped,
// and aggregate their statistics. A Controller is used once; a fresh
// instance is required to start again.
type Controller struct {
	cfg     Config
	logger  *logging.Logger
	nic     platform.Capability

	mu      sync.Mutex
	state   State
	workers []*worker.Worker
	drivers []ring.Driver
	shared  []*worker.SharedCounters

	cancel context.CancelFunc
	group  *errgroup.Group

	ebpf *ebpfxdp.Loader
}

// NewController builds a Controller in state Uninit.
func NewController(cfg Config, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{cfg: cfg, logger: logger, state: Uninit}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Init resolves the interface's ifindex, local MAC, and NIC capability,
// and validates cfg. Fatal errors here abort before any socket is opened.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Uninit {
		return NewError("init", ReasonInvalidArgument, fmt.Errorf("controller already initialized"))
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	capa, err := platform.Probe(c.cfg.Interface)
	if err != nil {
		return NewError("init", ReasonInterfaceNotFound, err)
	}
	c.nic = capa
	c.logger = c.logger.WithInterface(capa.Name)
	c.logger.Info("probed interface",
		"ifindex", capa.IfIndex, "mtu", capa.MTU, "rx_queues", capa.RxQueues,
		"driver", capa.DriverName, "link_speed_mbps", capa.LinkSpeedMbps,
		"mac", fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			capa.LocalMAC[0], capa.LocalMAC[1], capa.LocalMAC[2],
			capa.LocalMAC[3], capa.LocalMAC[4], capa.LocalMAC[5]))

	c.state = Initialized
	return nil
}

// Start allocates one worker per RX queue, spawning its driver and
// goroutine, then drops root privileges once every socket is open.
// Pre-built drivers (used by tests) are accepted via StartWithDrivers;
// Start always probes the real zero-copy/copying drivers in order.
func (c *Controller) Start(ctx context.Context) error {
	return c.start(ctx, nil)
}

// StartWithDrivers behaves like Start but uses drivers (one per worker,
// already constructed) instead of probing real NIC drivers — exclusively
// for tests exercising the worker pool and lifecycle without a NIC.
func (c *Controller) StartWithDrivers(ctx context.Context, drivers []ring.Driver) error {
	return c.start(ctx, drivers)
}

func (c *Controller) start(ctx context.Context, injected []ring.Driver) error {
	c.mu.Lock()
	if c.state != Initialized {
		c.mu.Unlock()
		return NewError("start", ReasonInvalidArgument, fmt.Errorf("controller not in Initialized state"))
	}
	c.mu.Unlock()

	numWorkers := c.nic.RxQueues
	if numWorkers < 1 {
		numWorkers = 1
	}

	drivers, err := c.buildDrivers(numWorkers, injected)
	if err != nil {
		return err
	}

	if c.cfg.EBPFProgram != "" {
		if err := c.loadEBPFPreselector(drivers); err != nil {
			c.logger.Warn("eBPF preselector did not load; continuing on the pure user-space path", "error", err)
		}
	}

	if privdrop.Needed() {
		if target, ok := privdrop.FromSudoEnv(); ok {
			if err := privdrop.Drop(target); err != nil {
				return NewError("start", ReasonThreadSpawnFailed, err)
			}
			c.logger.Info("dropped privileges", "uid", target.UID, "gid", target.GID)
		} else {
			c.logger.Warn("running as root with no SUDO_UID/SUDO_GID to drop to; continuing as root")
		}
	}

	policy := c.cfg.policy(c.nic.LocalMAC)

	runCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(runCtx)

	workers := make([]*worker.Worker, 0, numWorkers)
	shared := make([]*worker.SharedCounters, 0, numWorkers)

	for i, drv := range drivers {
		sc := &worker.SharedCounters{}
		w := worker.New(worker.Config{
			ID:                 i,
			Driver:             drv,
			Policy:             policy,
			Mode:               c.cfg.Mode,
			ComputeChecksum:    c.cfg.ComputeChecksum,
			LatencyEnabled:     c.cfg.LatencyEnabled,
			CPUID:              -1,
			BatchSize:          c.cfg.BatchSize,
			StatsFlushInterval: constants.DefaultStatsFlushInterval,
			Shared:             sc,
			Logger:             c.logger,
		})
		workers = append(workers, w)
		shared = append(shared, sc)

		group.Go(func() error {
			return w.Run(runCtx)
		})
	}

	c.mu.Lock()
	c.workers = workers
	c.drivers = drivers
	c.shared = shared
	c.cancel = cancel
	c.group = group
	c.state = Running
	c.mu.Unlock()

	return nil
}

// buildDrivers constructs one driver per worker: the preferred zero-copy
// driver for each queue, or — if the first worker's zero-copy driver
// fails to initialize — a single copying fallback driver (one worker),
// with a loud warning naming what was lost.
func (c *Controller) buildDrivers(numWorkers int, injected []ring.Driver) ([]ring.Driver, error) {
	if injected != nil {
		return injected, nil
	}

	drivers := make([]ring.Driver, 0, numWorkers)
	for q := 0; q < numWorkers; q++ {
		pool := ring.NewFramePool(c.cfg.FrameSize, c.cfg.FrameCount)
		drv, err := ring.NewXDPDriver(c.nic.IfIndex, uint32(q), pool, c.logger)
		if err != nil {
			if q == 0 {
				c.logger.Warn("zero-copy driver init failed, falling back to af-packet; "+
					"throughput will be an order of magnitude lower; requires CAP_NET_RAW "+
					"and an AF_XDP-capable NIC driver for zero-copy", "error", err)
				return c.buildFallbackDrivers(numWorkers)
			}
			for _, d := range drivers {
				d.Close()
			}
			return nil, NewWorkerError("start", q, ReasonDriverInitFailed, err)
		}
		drivers = append(drivers, drv)
	}
	return drivers, nil
}

// socketFD is satisfied by ring.XDPDriver; it is deliberately not part
// of the ring.Driver contract, since only the zero-copy driver has a
// kernel socket an eBPF program can redirect into.
type socketFD interface {
	SocketFD() int
}

// loadEBPFPreselector attaches the configured XDP object to the bound
// interface and registers each zero-copy driver's AF_XDP socket into its
// XSKMAP by queue index, so the kernel redirects matching frames
// straight to the worker without a round trip through the generic XDP
// path. Drivers that aren't zero-copy (the af-packet fallback) are
// skipped; if none qualify, the load still succeeds but nothing is
// registered.
func (c *Controller) loadEBPFPreselector(drivers []ring.Driver) error {
	loader, err := ebpfxdp.Load(ebpfxdp.Config{
		ObjectPath: c.cfg.EBPFProgram,
		Ifindex:    c.nic.IfIndex,
	})
	if err != nil {
		return err
	}

	for q, drv := range drivers {
		sfd, ok := drv.(socketFD)
		if !ok {
			continue
		}
		if err := loader.RegisterSocket(uint32(q), sfd.SocketFD()); err != nil {
			loader.Close()
			return fmt.Errorf("registering queue %d socket: %w", q, err)
		}
	}

	c.ebpf = loader
	c.logger.Info("eBPF preselector attached", "object", c.cfg.EBPFProgram)
	return nil
}

func (c *Controller) buildFallbackDrivers(numWorkers int) ([]ring.Driver, error) {
	// The copying driver doesn't bind per-queue; one worker suffices.
	pool := ring.NewFramePool(c.cfg.FrameSize, c.cfg.FrameCount)
	drv, err := ring.NewCopyDriver(c.nic.IfIndex, pool)
	if err != nil {
		return nil, NewError("start", ReasonDriverInitFailed, err)
	}
	return []ring.Driver{drv}, nil
}

// Stop clears every worker's running flag, waits (bounded) for them to
// exit, then closes their drivers. Stop is idempotent after the first
// call returns.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return nil
	}
	c.state = Stopping
	workers := c.workers
	drivers := c.drivers
	cancel := c.cancel
	group := c.group
	ebpfLoader := c.ebpf
	c.mu.Unlock()

	if ebpfLoader != nil {
		if err := ebpfLoader.Close(); err != nil {
			c.logger.Warn("eBPF preselector detach failed", "error", err)
		}
	}

	for _, w := range workers {
		w.Stop()
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("worker exited with error during shutdown", "error", err)
		}
	case <-time.After(constants.ShutdownJoinTimeout):
		c.logger.Warn("shutdown join timed out; canceling context")
		cancel()
		<-done
	}
	cancel()

	for _, d := range drivers {
		if err := d.Close(); err != nil {
			c.logger.Warn("driver close failed", "driver", d.Name(), "error", err)
		}
	}

	c.mu.Lock()
	c.state = Stopped
	c.mu.Unlock()
	return nil
}

// AggregateStats sums every worker's shared counter block into one
// snapshot. Reads are unsynchronized by design; see internal/worker.
func (c *Controller) AggregateStats() worker.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return worker.Aggregate(c.shared)
}
