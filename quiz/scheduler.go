// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	stdlibtime "time"
)

func (*timerScheduler) Schedule(delay stdlibtime.Duration, fire func()) (cancel func() bool) {
	return stdlibtime.AfterFunc(delay, fire).Stop
}
