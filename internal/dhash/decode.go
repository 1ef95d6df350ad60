package dhash

// Decoder registration for the recognized formats beyond what the imaging
// library pulls in itself. HEIC has no pure-Go decoder; those files surface
// as decode skips.
import (
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)
