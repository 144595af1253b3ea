// Package redis builds go-redis clients for the notification relay.
//
// Config names one endpoint by host, port and password. Options turns it into
// *redis.Options with tight timeouts, IPv4 dialing and TLS for managed hosts
// (see NeedsTLS). Connect makes one bounded attempt to reach the server and
// Healthcheck wraps a PING for readiness probes.
//
//	client, err := redis.Connect(ctx, redis.Config{
//	    Host:           "localhost",
//	    Port:           6379,
//	    ConnectTimeout: 5 * time.Second,
//	    CommandTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    // errors.Is(err, redis.ErrRedisNotReady)
//	}
//	defer client.Close()
//
// Errors are sentinel values joined with the driver error via errors.Join.
package redis
