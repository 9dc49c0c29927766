package process

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	gproc "github.com/shirou/gopsutil/v4/process"

	"github.com/srodi/appwatch/pkg/types"
)

// DefaultCacheSize bounds how many process handles stay open between ticks.
const DefaultCacheSize = 64

// handle is the slice of gopsutil's Process the reader needs.
type handle interface {
	MemoryInfoWithContext(ctx context.Context) (*gproc.MemoryInfoStat, error)
	IOCountersWithContext(ctx context.Context) (*gproc.IOCountersStat, error)
	NameWithContext(ctx context.Context) (string, error)
	IsRunningWithContext(ctx context.Context) (bool, error)
}

// openProcess allows tests to stub process lookups that normally hit the OS.
var openProcess = func(ctx context.Context, pid int32) (handle, error) {
	return gproc.NewProcessWithContext(ctx, pid)
}

// Reader returns the resource footprint of a PID. Failures degrade to zeros.
type Reader interface {
	Read(ctx context.Context, pid int32) types.ProcStat
}

// Collector reads RSS and cumulative disk I/O through gopsutil, keeping recently
// used process handles in an LRU cache. A cached handle is only reused while
// its process is still running with the same start time, so a recycled pid
// is never attributed to the process that held it before.
type Collector struct {
	cache  *lru.Cache[int32, handle]
	logger zerolog.Logger
}

// NewCollector builds a reader whose handle cache holds up to size entries.
func NewCollector(size int, logger zerolog.Logger) (*Collector, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[int32, handle](size)
	if err != nil {
		return nil, fmt.Errorf("creating process handle cache: %w", err)
	}
	return &Collector{
		cache:  cache,
		logger: logger.With().Str("component", "process-reader").Logger(),
	}, nil
}

// Read returns the current RSS and read+write byte totals for pid. A process
// that is gone or inaccessible yields zeros and a debug diagnostic; Read never fails.
func (c *Collector) Read(ctx context.Context, pid int32) types.ProcStat {
	stat := types.ProcStat{PID: pid}
	p, err := c.lookup(ctx, pid)
	if err != nil {
		c.logger.Debug().Err(err).Int32("pid", pid).Msg("process unavailable")
		return stat
	}

	var gone bool
	if mem, err := p.MemoryInfoWithContext(ctx); err != nil {
		gone = gone || errors.Is(err, gproc.ErrorProcessNotRunning)
		c.logger.Debug().Err(err).Int32("pid", pid).Msg("reading memory usage failed")
	} else if mem != nil {
		stat.RSSBytes = mem.RSS
	}

	if io, err := p.IOCountersWithContext(ctx); err != nil {
		gone = gone || errors.Is(err, gproc.ErrorProcessNotRunning)
		c.logger.Debug().Err(err).Int32("pid", pid).Msg("reading disk usage failed")
	} else if io != nil {
		stat.DiskBytes = io.ReadBytes + io.WriteBytes
	}

	if gone {
		c.cache.Remove(pid)
	}
	return stat
}

// Name returns the executable name of pid.
func (c *Collector) Name(ctx context.Context, pid int32) (string, error) {
	p, err := c.lookup(ctx, pid)
	if err != nil {
		return "", err
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		if errors.Is(err, gproc.ErrorProcessNotRunning) {
			c.cache.Remove(pid)
		}
		return "", fmt.Errorf("reading name of pid %d: %w", pid, err)
	}
	return name, nil
}

func (c *Collector) lookup(ctx context.Context, pid int32) (handle, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid %d", pid)
	}
	if p, ok := c.cache.Get(pid); ok {
		running, err := p.IsRunningWithContext(ctx)
		if err == nil && running {
			return p, nil
		}
		c.cache.Remove(pid)
		c.logger.Debug().Err(err).Int32("pid", pid).Msg("cached process handle is stale")
	}
	p, err := openProcess(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("opening pid %d: %w", pid, err)
	}
	c.cache.Add(pid, p)
	return p, nil
}

// Cached reports how many process handles are currently held.
func (c *Collector) Cached() int {
	return c.cache.Len()
}
