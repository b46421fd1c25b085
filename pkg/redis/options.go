package redis

import (
	"log/slog"
	"time"
)

// Option configures Open.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	clientName    string
	poolSize      int
	minIdleConns  int
	maxIdleTime   time.Duration
	retryAttempts int
	retryInterval time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
	dialTimeout   time.Duration
}

func defaultOptions() *options {
	return &options{
		clientName:    "hoard",
		poolSize:      10,
		minIdleConns:  2,
		maxIdleTime:   10 * time.Minute,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		readTimeout:   time.Second,
		writeTimeout:  time.Second,
		dialTimeout:   3 * time.Second,
	}
}

// WithPool sets the pool size and the number of idle connections kept open.
// Default: 10 connections, 2 idle.
func WithPool(size, minIdle int) Option {
	return func(o *options) {
		if size > 0 {
			o.poolSize = size
		}
		if minIdle >= 0 {
			o.minIdleConns = minIdle
		}
	}
}

// WithMaxIdleTime closes connections idle for longer than d.
// Default: 10 minutes.
func WithMaxIdleTime(d time.Duration) Option {
	return func(o *options) {
		o.maxIdleTime = d
	}
}

// WithRetry sets how many times Open pings before giving up. The wait before
// attempt n is n*interval.
// Default: 3 attempts, 2s.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithTimeouts sets read, write and dial timeouts. Zero keeps the default.
// Default: 1s read, 1s write, 3s dial.
func WithTimeouts(read, write, dial time.Duration) Option {
	return func(o *options) {
		if read > 0 {
			o.readTimeout = read
		}
		if write > 0 {
			o.writeTimeout = write
		}
		if dial > 0 {
			o.dialTimeout = dial
		}
	}
}

// WithClientName sets the name reported by CLIENT LIST.
// Default: "hoard".
func WithClientName(name string) Option {
	return func(o *options) {
		o.clientName = name
	}
}

// WithLogger logs failed connection attempts.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
