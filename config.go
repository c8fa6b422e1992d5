package vforge

import (
	"github.com/sirupsen/logrus"

	"github.com/vforge/vforge/vop"
)

// Config controls context construction, with the default implementation as
// NewConfig. Configs are immutable: every With method returns a copy.
type Config struct {
	target         Target
	scratchBase    vop.Register
	scratchRegions int
	log            logrus.FieldLogger
	bufferHint     int
}

// NewConfig returns a config for the detected host target with default
// scratch and buffer sizing.
func NewConfig() *Config {
	return &Config{
		target:     DetectTarget(),
		bufferHint: 512,
	}
}

// clone ensures all fields are copied even when zero.
func (c *Config) clone() *Config {
	ret := *c
	return &ret
}

// WithTarget pins the target instead of using the host's detected one.
func (c *Config) WithTarget(t Target) *Config {
	ret := c.clone()
	ret.target = t
	return ret
}

// WithScratch overrides the register holding the scratch-storage address and
// the number of vector-pair-sized regions behind it. Zero values keep the
// defaults. The base register becomes reserved: operations may not name it.
func (c *Config) WithScratch(base vop.Register, regions int) *Config {
	ret := c.clone()
	ret.scratchBase = base
	ret.scratchRegions = regions
	return ret
}

// WithTrace installs a logger that receives one debug entry per planned
// operation (mnemonic, shape, path, word count) and per label binding.
// Defaults to silent.
func (c *Config) WithTrace(log logrus.FieldLogger) *Config {
	ret := c.clone()
	ret.log = log
	return ret
}

// WithBufferHint presizes the code buffer to the given byte capacity.
func (c *Config) WithBufferHint(hint int) *Config {
	ret := c.clone()
	ret.bufferHint = hint
	return ret
}
