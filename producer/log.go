// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package producer

import "github.com/decred/slog"

// log is the package-level logger, disabled until a caller supplies one
// via UseLogger.
var log = slog.Disabled

// UseLogger sets the package-wide logger used to report tick activity and
// block-insertion failures.
func UseLogger(logger slog.Logger) {
	log = logger
}
