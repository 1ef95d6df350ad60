// Package hashcache persists image fingerprints in a small SQLite database
// so repeated scans over the same tree only decode files that changed.
//
// The cache key is (absolute path, size, mtime). Any mismatch is treated as
// a miss; the cache never serves a fingerprint for modified content.
package hashcache
