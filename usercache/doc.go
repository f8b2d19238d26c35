// Package usercache holds the short-lived Redis cache of authenticated-user
// snapshots, keyed by email. It saves a persistence read on every
// authenticated request but is never authoritative: absence or outage always
// forces a persistence read, never an error to the caller.
package usercache
