// SPDX-License-Identifier: GPL-3.0-or-later

package xnet

import (
	"net"
	"time"
)

// Config carries the dependencies shared by every stage of the dial
// pipeline ([NewConnectFunc], [NewObserveConnFunc]). [NewConfig] fills
// every field with a production-ready default; tests override individual
// fields (e.g. Dialer) to avoid real networking.
type Config struct {
	Dialer        Dialer
	ErrClassifier ErrClassifier
	TimeNow       func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		TimeNow:       time.Now,
	}
}
