package aws

import "time"

// msToTime converts an epoch-milliseconds timestamp, as several AWS APIs
// (CloudWatch Logs' CreationTime among them) report creation times, into
// a time.Time. Zero input yields the zero time.
func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
