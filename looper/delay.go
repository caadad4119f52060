// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package looper

import (
	"time"

	"code.hybscloud.com/await"
)

// Delay returns an awaitable that completes after d has elapsed on l.
// Closing the awaitable early expires its completer, so the delayed
// action fires as a no-op.
func Delay(l *Looper, d time.Duration) *await.Awaitable {
	a := await.New("delay")
	completer := a.TakeCompleter()
	l.ScheduleDelayed(d, func() {
		completer.Complete()
	})
	return a
}
