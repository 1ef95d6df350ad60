// Package dhash computes 64-bit perceptual difference hashes for images.
//
// The hash is derived from relative brightness between horizontally adjacent
// pixels of a small grayscale downsample, which makes it stable under uniform
// brightness or contrast shifts, minor cropping, and rescaling. Approximate
// equality between two images is measured as the Hamming distance between
// their hashes.
package dhash
