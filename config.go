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
	"fmt"
	"time"

	libval "github.com/go-playground/validator/v10"
	liberr "github.com/nabbar/golib/errors"

	"github.com/sabouaram/logshipper/transport/tcp"
)

// Config is the full set of options and tunables a handler needs to
// build its intake queue, durable buffer, transport and worker. It is
// captured once at New() and never consulted again afterward.
type Config struct {
	// Host is the remote collector's hostname or address.
	Host string `mapstructure:"host" json:"host" yaml:"host" toml:"host" validate:"required"`
	// Port is the remote collector's TCP port.
	Port int `mapstructure:"port" json:"port" yaml:"port" toml:"port" validate:"required,min=1,max=65535"`
	// DatabasePath selects the durable buffer backend: empty means
	// in-memory only, non-empty opens (or creates) a SQLite file there.
	DatabasePath string `mapstructure:"database-path" json:"database-path" yaml:"database-path" toml:"database-path"`
	// TransportName looks up a constructor in transport.Default(); the
	// reference "tcp" transport is registered by importing transport/tcp.
	TransportName string `mapstructure:"transport" json:"transport" yaml:"transport" toml:"transport"`

	// SSLEnable wraps the transport's socket in TLS.
	SSLEnable bool `mapstructure:"ssl-enable" json:"ssl-enable" yaml:"ssl-enable" toml:"ssl-enable"`
	// SSLVerify requires a valid server certificate chain when true.
	SSLVerify bool `mapstructure:"ssl-verify" json:"ssl-verify" yaml:"ssl-verify" toml:"ssl-verify"`
	// KeyFile and CertFile together present a client certificate.
	KeyFile  string `mapstructure:"keyfile" json:"keyfile" yaml:"keyfile" toml:"keyfile"`
	CertFile string `mapstructure:"certfile" json:"certfile" yaml:"certfile" toml:"certfile"`
	// CACerts is the trust store; empty means the system store.
	CACerts []string `mapstructure:"ca-certs" json:"ca-certs" yaml:"ca-certs" toml:"ca-certs"`

	// Enable gates Emit: when false, every record is dropped silently.
	Enable bool `mapstructure:"enable" json:"enable" yaml:"enable" toml:"enable"`
	// EventTTL drops buffered events older than this, evaluated at the
	// start of every flush cycle. Zero disables expiry.
	EventTTL time.Duration `mapstructure:"event-ttl" json:"event-ttl" yaml:"event-ttl" toml:"event-ttl"`
	// MaxPayloadSize bounds a single formatted event; oversized payloads
	// are dropped and logged by Emit, before they reach the intake queue,
	// rather than truncated.
	// Zero disables the guard.
	MaxPayloadSize int `mapstructure:"max-payload-size" json:"max-payload-size" yaml:"max-payload-size" toml:"max-payload-size"`

	// SocketTimeout bounds TCP connect/read/write and is also the base
	// of the backoff schedule.
	SocketTimeout time.Duration `mapstructure:"socket-timeout" json:"socket-timeout" yaml:"socket-timeout" toml:"socket-timeout"`
	// QueueCheckInterval is the intake-drain cadence.
	QueueCheckInterval time.Duration `mapstructure:"queue-check-interval" json:"queue-check-interval" yaml:"queue-check-interval" toml:"queue-check-interval"`
	// FlushInterval is the max time between flush attempts.
	FlushInterval time.Duration `mapstructure:"flush-interval" json:"flush-interval" yaml:"flush-interval" toml:"flush-interval"`
	// FlushCount is both the batch-size trigger and the ClaimBatch limit.
	FlushCount int `mapstructure:"flush-count" json:"flush-count" yaml:"flush-count" toml:"flush-count"`
	// DatabaseEventChunkSize bounds rows per SQL statement in the
	// file-backed buffer.
	DatabaseEventChunkSize int `mapstructure:"database-event-chunk-size" json:"database-event-chunk-size" yaml:"database-event-chunk-size" toml:"database-event-chunk-size"`
	// DatabaseTimeout bounds opening the file-backed buffer.
	DatabaseTimeout time.Duration `mapstructure:"database-timeout" json:"database-timeout" yaml:"database-timeout" toml:"database-timeout"`
	// ErrorLogRateLimit is a "<N> per <unit>" spec gating the worker's
	// own internal diagnostic emissions. Empty disables the limit.
	ErrorLogRateLimit string `mapstructure:"error-log-rate-limit" json:"error-log-rate-limit" yaml:"error-log-rate-limit" toml:"error-log-rate-limit"`

	// IntakeDrainSoftCap bounds how many intake items a single drain
	// step moves into the durable buffer per cycle.
	IntakeDrainSoftCap int `mapstructure:"intake-drain-soft-cap" json:"intake-drain-soft-cap" yaml:"intake-drain-soft-cap" toml:"intake-drain-soft-cap"`
}

// DefaultConfig returns a Config populated with documented defaults. A
// handler built from this value alone still needs Host/Port filled in
// before Validate succeeds.
func DefaultConfig() Config {
	return Config{
		TransportName:          tcp.Name,
		SSLVerify:              true,
		Enable:                 true,
		SocketTimeout:          5 * time.Second,
		QueueCheckInterval:     2 * time.Second,
		FlushInterval:          10 * time.Second,
		FlushCount:             50,
		DatabaseEventChunkSize: 750,
		DatabaseTimeout:        5 * time.Second,
		IntakeDrainSoftCap:     1000,
	}
}

// Validate checks the struct tags with validator/v10, the same
// Validate() liberr.Error shape used by certificates.Config and
// database/gorm.Config.
func (c *Config) Validate() liberr.Error {
	e := ErrorValidatorError.Error(nil)

	if err := libval.New().Struct(c); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.Add(er)
		} else if vErrs, ok := err.(libval.ValidationErrors); ok {
			for _, er := range vErrs {
				//nolint #goerr113
				e.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", er.Namespace(), er.ActualTag()))
			}
		} else {
			e.Add(err)
		}
	}

	if c.TransportName == "" {
		e.Add(fmt.Errorf("config field 'TransportName' must not be empty"))
	}

	if !e.HasParent() {
		return nil
	}

	return e
}

// Clone returns an independent copy; slices are copied so mutating the
// clone's CACerts never affects the original.
func (c Config) Clone() Config {
	n := c
	if c.CACerts != nil {
		n.CACerts = append([]string(nil), c.CACerts...)
	}
	return n
}
