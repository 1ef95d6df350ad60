//go:build unix

package organizer

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"phototriage/internal/services"
)

// checkFreeSpace verifies the destination's filesystem can absorb the bytes a
// copy run is about to write. Statfs needs an existing path, so the check
// walks up from the destination to the nearest existing ancestor.
func checkFreeSpace(dest string, needed int64) error {
	if needed <= 0 {
		return nil
	}

	probe := dest
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(probe, &stat); err != nil {
		return services.Wrap(services.ErrIO, "organize", "check free space", probe, err)
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < needed {
		return services.Wrap(services.ErrIO, "organize", "check free space",
			fmt.Sprintf("destination has %d bytes available, copy needs %d", available, needed), nil)
	}
	return nil
}
