/*
Package network issues course API requests and delivers their results as
streams.

A Manager resolves request paths against a base URL, throttles with a token
bucket, collapses identical in-flight GETs and runs round trips on a worker
pool so the executor never blocks on I/O. Results come back on the
manager's executor, ready to resolve a stream or back a BackedStream.

	m, err := network.New(network.Config{BaseURL: "https://courses.example.com/api/"}, exec)
	if err != nil {
		return err
	}
	outline := network.StreamForRequest(m, network.Request[Outline]{
		Path:   "course_structure/v0/" + courseID,
		Decode: network.DecodeJSON[Outline](),
	}, network.PersistResponse())

# Persisted responses

Requests issued with PersistResponse store their body in the configured
ResponseCache. If a later round trip fails, the cached body is decoded
instead, so content stays available offline. RedisCache shares the cache
between processes; MemoryCache keeps it local.

# Errors

Transport failures and non-2xx statuses are reported as
*errors.NetworkError. Bodies that fail to decode are reported as
*errors.ContentLoadError.
*/
package network
