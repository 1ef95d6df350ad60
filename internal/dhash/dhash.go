package dhash

import (
	"image"
	"math/bits"
	"os"

	"github.com/disintegration/imaging"

	"phototriage/internal/services"
)

// The difference hash compares each pixel of a 9x8 grayscale downsample to
// its horizontal neighbor, yielding 8 comparisons per row and a 64-bit hash.
const (
	hashCols = 9
	hashRows = 8
)

// FromImage computes the 64-bit difference hash of a decoded image.
func FromImage(img image.Image) uint64 {
	small := imaging.Grayscale(imaging.Resize(img, hashCols, hashRows, imaging.Lanczos))

	var hash uint64
	for y := 0; y < hashRows; y++ {
		for x := 0; x < hashCols-1; x++ {
			hash <<= 1
			// Grayscale pixels have R == G == B.
			if small.NRGBAAt(x, y).R > small.NRGBAAt(x+1, y).R {
				hash |= 1
			}
		}
	}
	return hash
}

// FromFile decodes the image at path (honoring EXIF orientation) and returns
// its fingerprint together with the decoded pixel dimensions. Undecodable
// files yield an error tagged services.ErrDecode; missing or unreadable files
// yield services.ErrIO.
func FromFile(path string) (hash uint64, width, height int, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return 0, 0, 0, services.Wrap(services.ErrIO, "fingerprinting", "stat file", path, statErr)
	}
	img, decodeErr := imaging.Open(path, imaging.AutoOrientation(true))
	if decodeErr != nil {
		return 0, 0, 0, services.Wrap(services.ErrDecode, "fingerprinting", "decode image", path, decodeErr)
	}
	bounds := img.Bounds()
	return FromImage(img), bounds.Dx(), bounds.Dy(), nil
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
