// Package organizer buckets image files into date-named subdirectories of a
// destination root. The bucket comes from the EXIF capture date formatted at
// a chosen granularity; files without a usable date share a single fallback
// bucket. The copy-or-move choice is caller-supplied and honored exactly.
package organizer
