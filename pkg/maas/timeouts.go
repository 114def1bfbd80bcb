// pkg/maas/timeouts.go

package maas

import "time"

// packageTimeout bounds maas init, which migrates the database and can take
// minutes on slow disks.
const packageTimeout = 5 * time.Minute
