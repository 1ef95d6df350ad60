//go:build !unix

package organizer

// checkFreeSpace is a no-op where no Statfs equivalent is wired.
func checkFreeSpace(dest string, needed int64) error {
	return nil
}
