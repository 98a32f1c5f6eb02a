package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached connects the short-lived cache for account-group fact lists.
func NewMemcached(servers ...string) *memcache.Client {
	return memcache.New(servers...)
}
