/*
Package session implements session management and persistence orchestration.

It serializes turns per applicant session across goroutines and, when a
distributed locker is configured, across replicas, wrapping every
load-modify-save cycle around the configured SessionStore.
*/
package session
