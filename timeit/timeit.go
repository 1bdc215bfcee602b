// Package timeit замеряет время выполнения операций.
package timeit

import (
	"fmt"
	"log/slog"
	"time"
)

// now можно подменить в тестах.
var now = time.Now

// Track запускает замер. Использование:
//
//	defer timeit.Track(log, "transcribe")()
func Track(log *slog.Logger, name string) func() time.Duration {
	start := now()
	return func() time.Duration {
		elapsed := now().Sub(start)
		log.Info(fmt.Sprintf("функция '%s' выполнена за %.4f сек.", name, elapsed.Seconds()))
		return elapsed
	}
}
