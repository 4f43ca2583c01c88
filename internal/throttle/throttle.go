/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package throttle rate-limits dispatch per caller identifier. The check and
// the access recording are separate steps: dispatch checks before running a
// handler and records only after the handler succeeds, so rejected and failed
// requests never consume quota.
package throttle

import (
	"sync"
	"time"

	"github.com/wso2/restkit/internal/cache"
)

// Throttle decides whether a caller may proceed.
type Throttle interface {
	// ShouldBeThrottled reports whether the identifier has exhausted its
	// window; a positive wait is the seconds until the next slot frees up.
	ShouldBeThrottled(identifier string) (bool, time.Duration)
	// AccessRecorded logs one successful access for the identifier.
	AccessRecorded(identifier string)
}

// NoThrottle never throttles. It is the default.
type NoThrottle struct{}

func (NoThrottle) ShouldBeThrottled(string) (bool, time.Duration) { return false, 0 }
func (NoThrottle) AccessRecorded(string)                          {}

// Window throttles to Limit accesses per Timeframe using a timestamp log
// kept in the configured cache.
type Window struct {
	Limit     int
	Timeframe time.Duration
	Cache     cache.Cache

	mu  sync.Mutex
	now func() time.Time
}

// NewWindow creates a sliding-window throttle backed by the given cache.
func NewWindow(limit int, timeframe time.Duration, c cache.Cache) *Window {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &Window{Limit: limit, Timeframe: timeframe, Cache: c, now: time.Now}
}

func (w *Window) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

func (w *Window) key(identifier string) string {
	return "throttle:" + identifier
}

func (w *Window) accesses(identifier string) []time.Time {
	raw, ok := w.Cache.Get(w.key(identifier))
	if !ok {
		return nil
	}
	stamps, _ := raw.([]time.Time)

	cutoff := w.clock().Add(-w.Timeframe)
	live := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	return live
}

func (w *Window) ShouldBeThrottled(identifier string) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	live := w.accesses(identifier)
	if len(live) < w.Limit {
		return false, 0
	}
	wait := live[0].Add(w.Timeframe).Sub(w.clock())
	if wait < 0 {
		wait = 0
	}
	return true, wait
}

func (w *Window) AccessRecorded(identifier string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	live := append(w.accesses(identifier), w.clock())
	w.Cache.Set(w.key(identifier), live, w.Timeframe)
}
