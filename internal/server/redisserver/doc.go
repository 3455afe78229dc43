// Package redisserver exposes a storage.KV over the Redis RESP2 protocol.
//
// It lets redis-cli and go-redis clients inspect and drive the same
// key-value store the HTTP service uses. Supported commands:
//   - PING, QUIT, AUTH, SELECT 0
//   - GET, SET [EX|PX], DEL, EXISTS, INCR
//   - SCAN cursor [MATCH pattern] [COUNT n]
//
// HELLO and CLIENT are answered with errors so RESP3-capable clients fall
// back to RESP2.
package redisserver
