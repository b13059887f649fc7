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
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/ringcap/ringcap/consumer"
	"github.com/ringcap/ringcap/rclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryReporterLogsOncePerSecond(t *testing.T) {
	skipIfUnsupported(t)

	var buf bytes.Buffer
	rclog.SetOutput(log.New(&buf, "", 0))
	defer rclog.SetOutput(log.New(logDiscard{}, "", 0))

	reg := consumer.NewRegistry(5, 1, smallRingOptions(), nil)
	h, err := reg.Open(1, 0)
	require.NoError(t, err)
	defer h.Close()
	_, err = h.Control(consumer.EnableCapture, 0, nil)
	require.NoError(t, err)

	reporter := NewSummaryReporter(reg)

	now := time.Now()
	reporter.tick(now)
	waitUntil(t, func() bool { return buf.Len() > 0 })
	firstLen := buf.Len()

	// Within the same second, a second tick must not log again.
	reporter.tick(now.Add(10 * time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, firstLen, buf.Len())

	// A tick a full second later logs again.
	reporter.tick(now.Add(time.Second + time.Millisecond))
	waitUntil(t, func() bool { return buf.Len() > firstLen })
}

type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
