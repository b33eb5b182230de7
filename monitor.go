/*
 * MIT License
 *
 * Copyright (c) 2026 logshipper authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logshipper

import (
	"context"
	"fmt"
	"time"

	libdur "github.com/nabbar/golib/duration"
	libmon "github.com/nabbar/golib/monitor"
	moninf "github.com/nabbar/golib/monitor/info"
	montps "github.com/nabbar/golib/monitor/types"
	libver "github.com/nabbar/golib/version"
)

const defaultNameMonitor = "log shipper"

// Monitor builds and starts a health monitor for this Handler, grounded
// on database/gorm.Database.Monitor: the reported info mirrors the
// worker's own internal bookkeeping -- buffer size, whether the worker
// goroutine is running -- rather than checking connectivity to the
// collector directly, since the worker already owns that and never
// blocks the monitor's own check loop on it.
func (h *Handler) Monitor(ctx context.Context, vrs libver.Version) (montps.Monitor, error) {
	var (
		e   error
		inf moninf.Info
		mon montps.Monitor
	)

	if inf, e = moninf.New(defaultNameMonitor); e != nil {
		return nil, ErrorMonitorBuild.Error(e)
	}

	inf.RegisterName(func() (string, error) {
		return fmt.Sprintf("%s %s:%d", defaultNameMonitor, h.cfg.Host, h.cfg.Port), nil
	})
	inf.RegisterInfo(func() (map[string]interface{}, error) {
		size, sizeErr := h.buf.Size(context.Background())

		res := map[string]interface{}{
			"running": h.wrk.IsRunning(),
			"host":    h.cfg.Host,
			"port":    h.cfg.Port,
		}
		if vrs != nil {
			res["release"] = vrs.GetRelease()
			res["build"] = vrs.GetBuild()
		}
		if sizeErr == nil {
			res["buffer_size"] = size
		}
		return res, nil
	})

	if mon, e = libmon.New(ctx, inf); e != nil {
		return nil, ErrorMonitorBuild.Error(e)
	}

	cfg := montps.Config{
		Name:          inf.Name(),
		CheckTimeout:  libdur.ParseDuration(h.cfg.SocketTimeout),
		IntervalCheck: libdur.ParseDuration(h.cfg.QueueCheckInterval),
		IntervalFall:  libdur.ParseDuration(2 * time.Second),
		IntervalRise:  libdur.ParseDuration(2 * time.Second),
		FallCountKO:   3,
		FallCountWarn: 1,
		RiseCountKO:   1,
		RiseCountWarn: 1,
		Logger:        h.diag,
	}

	if e = mon.SetConfig(ctx, cfg); e != nil {
		return nil, ErrorMonitorBuild.Error(e)
	}

	mon.SetHealthCheck(func(ctx context.Context) error {
		if !h.wrk.IsRunning() {
			return fmt.Errorf("worker is not running")
		}
		return nil
	})

	if e = mon.Start(ctx); e != nil {
		return nil, ErrorMonitorBuild.Error(e)
	}

	return mon, nil
}
