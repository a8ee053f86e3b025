package influxdb

import "errors"

// Sentinel errors, matched by callers with errors.Is. Most write
// failures never surface here since the write path is asynchronous;
// they arrive through the SetOnError callback instead.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrDisabled         = errors.New("influxdb: disabled in configuration")
)
