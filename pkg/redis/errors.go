package redis

import "errors"

var (
	ErrEmptyHost         = errors.New("empty redis host")
	ErrRedisNotReady     = errors.New("redis did not answer PING within the connect timeout")
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
)
