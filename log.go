// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "github.com/rs/zerolog"

// logger receives debug events from the slow paths (sleep, wake,
// spurious wake). Disabled by default.
var logger = zerolog.Nop()

// SetLogger installs l as the runtime's logger.
// It must be called before endpoints are in use.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "pipes").Logger()
}
