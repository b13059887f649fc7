// Copyright 2024 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package capture

import (
	"context"
	"time"

	"github.com/ringcap/ringcap/concurrency/gopool"
	"github.com/ringcap/ringcap/consumer"
	"github.com/ringcap/ringcap/rclog"
)

// SummaryReporter runs the "at most once per second per ring" drop
// summary spec.md §7 asks for, off the record hot path: it ticks,
// fans the tick out across a small worker pool (one task per ring, so a
// slow log write on one ring never delays the others), and logs via
// rclog only for rings whose watermark says a second has actually
// elapsed.
type SummaryReporter struct {
	Registry *consumer.Registry
	pool     *gopool.GoPool
	cancel   context.CancelFunc
}

// NewSummaryReporter builds a reporter backed by a dedicated worker
// pool, sized down from gopool's defaults since this workload is one
// tiny task per ring per second, not a general-purpose task queue.
func NewSummaryReporter(reg *consumer.Registry) *SummaryReporter {
	opt := gopool.DefaultOption()
	opt.MaxIdleWorkers = 8
	opt.TaskChanBuffer = 64
	return &SummaryReporter{
		Registry: reg,
		pool:     gopool.NewGoPool("ringcap-summary", opt),
	}
}

// Start begins ticking once per second until ctx is canceled or Stop is
// called.
func (s *SummaryReporter) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(now)
			}
		}
	}()
}

// Stop ends the ticking loop. It does not drain in-flight summary tasks.
func (s *SummaryReporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *SummaryReporter) tick(now time.Time) {
	s.Registry.Range(func(c *consumer.Consumer) {
		for i := 0; i < c.NumRings(); i++ {
			r := c.Ring(i)
			ringNo := i
			owner := c.OwnerID()
			if !r.IsOpen() || !r.ShouldLogSummary(now) {
				continue
			}
			s.pool.Go(func() {
				stats := r.Stats()
				rclog.Verbosef(true, "owner=%d ring=%d n_evts=%d n_drops_buffer=%d n_drops_pf=%d n_preemptions=%d",
					owner, ringNo, stats.NEvts, stats.NDropsBuffer, stats.NDropsPf, stats.NPreemptions)
			})
		}
	})
}
