package influxdb

import "errors"

// Write failures are not returned here; the batched writer reports them to
// the ErrorHandler given to Connect.
var (
	ErrDisabled         = errors.New("influxdb: disabled")
	ErrConnectionFailed = errors.New("influxdb: server unreachable")
	ErrNotConnected     = errors.New("influxdb: client closed")
	ErrUnhealthy        = errors.New("influxdb: server reports unhealthy")
)
