package repos

import "time"

// batchTimes returns n strictly increasing timestamps. Join rows inserted in
// one statement would otherwise share created_at and lose their slice order.
func batchTimes(n int) []time.Time {
	base := time.Now().UTC()
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Microsecond)
	}
	return out
}
