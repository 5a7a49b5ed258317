// Package redisstore is a session.Store on Redis (or any server speaking
// the same protocol) through go-redis.
//
// Records are plain string keys written with SET EX; expiry is left to the
// server, so the store has no cleanup sweep. Touch maps to EXPIRE and Destroy
// to DEL.
package redisstore
