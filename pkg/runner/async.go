package runner

import (
	"github.com/srodi/appwatch/pkg/report"
	"github.com/srodi/appwatch/pkg/types"
)

// asyncReporter renders snapshots on one background goroutine. At most one
// snapshot waits behind the render in flight; a newer one replaces it.
type asyncReporter struct {
	next    report.Reporter
	pending chan types.UsageTable
	done    chan struct{}
}

func newAsyncReporter(next report.Reporter) *asyncReporter {
	a := &asyncReporter{
		next:    next,
		pending: make(chan types.UsageTable, 1),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *asyncReporter) loop() {
	defer close(a.done)
	for table := range a.pending {
		_ = a.next.Report(table)
	}
}

// Report queues a copy of table. It must only be called from one goroutine.
func (a *asyncReporter) Report(table types.UsageTable) error {
	snapshot := table.Clone()
	select {
	case a.pending <- snapshot:
		return nil
	default:
	}
	select {
	case <-a.pending:
	default:
	}
	a.pending <- snapshot
	return nil
}

// Close waits for queued renders to finish.
func (a *asyncReporter) Close() {
	close(a.pending)
	<-a.done
}
