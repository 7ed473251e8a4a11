/*
Package session implements session management and persistence orchestration.

It serializes concurrent access to remotely hosted session states, combining
per-process reference-counted locks with an optional distributed locker so
that only one request at a time advances a given session across replicas.
*/
package session
