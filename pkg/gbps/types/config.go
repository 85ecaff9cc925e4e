package types

import (
	"fmt"
	"net"
)

// Config holds the immutable-after-construction peer sampling parameters.
// See: https://infoscience.epfl.ch/record/109297/files/all.pdf
type Config struct {
	Address            string
	Push               bool
	Pull               bool
	SamplingPeriod     uint64 // seconds
	SamplingDeviation  uint64 // seconds, upper bound of jitter
	ViewSize           uint
	HealingFactor      uint
	SwappingFactor     uint
	MonitoringEndpoint string // empty disables the HTTP POST sink
	MetricsAddr        string // empty disables the prometheus exporter
	Logger             Logger
}

// Option configures a Config under construction.
type Option func(*Config)

func WithPush(push bool) Option { return func(c *Config) { c.Push = push } }
func WithPull(pull bool) Option { return func(c *Config) { c.Pull = pull } }

func WithSamplingPeriod(seconds uint64) Option {
	return func(c *Config) { c.SamplingPeriod = seconds }
}

func WithSamplingDeviation(seconds uint64) Option {
	return func(c *Config) { c.SamplingDeviation = seconds }
}

func WithViewSize(size uint) Option { return func(c *Config) { c.ViewSize = size } }

func WithHealingFactor(h uint) Option { return func(c *Config) { c.HealingFactor = h } }

func WithSwappingFactor(s uint) Option { return func(c *Config) { c.SwappingFactor = s } }

func WithMonitoringEndpoint(endpoint string) Option {
	return func(c *Config) { c.MonitoringEndpoint = endpoint }
}

func WithMetricsAddr(addr string) Option { return func(c *Config) { c.MetricsAddr = addr } }

func WithLogger(logger Logger) Option { return func(c *Config) { c.Logger = logger } }

// NewConfig builds a Config for the given bind address, applying defaults
// matching the reference implementation (push=pull=true, T=10s, D=5s,
// c=20, h=2, s=8) and then the supplied options, validating the result.
//
// Returns ErrConfigInvalid if address does not parse as a socket address,
// if view size is below 2 (head() computes c/2-1 and would underflow
// below that), or if healing_factor+swapping_factor exceeds view_size
// (the removal phases could never make progress).
func NewConfig(address string, opts ...Option) (*Config, error) {
	c := &Config{
		Address:           address,
		Push:              true,
		Pull:              true,
		SamplingPeriod:    10,
		SamplingDeviation: 5,
		ViewSize:          20,
		HealingFactor:     2,
		SwappingFactor:    8,
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return nil, fmt.Errorf("%w: address %q: %v", ErrConfigInvalid, c.Address, err)
	}
	if c.ViewSize < 2 {
		return nil, fmt.Errorf("%w: view_size must be >= 2, got %d", ErrConfigInvalid, c.ViewSize)
	}
	if c.HealingFactor+c.SwappingFactor > c.ViewSize {
		return nil, fmt.Errorf("%w: healing_factor(%d)+swapping_factor(%d) exceeds view_size(%d)",
			ErrConfigInvalid, c.HealingFactor, c.SwappingFactor, c.ViewSize)
	}

	return c, nil
}
