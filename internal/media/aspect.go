package media

import "math"

// Aspect classification buckets, used as storage key prefixes.
const (
	AspectLandscape = "landscape"
	AspectPortrait  = "portrait"
	AspectOther     = "other"
)

// aspectTolerance is the maximum distance from 16:9 or 9:16 for a ratio to
// land in the landscape or portrait bucket.
const aspectTolerance = 0.01

// gcd returns the greatest common divisor of a and b.
func gcd(a, b int) int {
	if b == 0 {
		return a
	}
	return gcd(b, a%b)
}

// Reduce returns the dimensions divided by their greatest common divisor.
func (d Dimensions) Reduce() Dimensions {
	div := gcd(d.Width, d.Height)
	if div == 0 {
		return d
	}
	return Dimensions{Width: d.Width / div, Height: d.Height / div}
}

// ClassifyAspect buckets dimensions into landscape, portrait, or other by
// comparing the reduced width:height ratio against 16:9 and 9:16.
func ClassifyAspect(d Dimensions) string {
	if d.Width <= 0 || d.Height <= 0 {
		return AspectOther
	}

	reduced := d.Reduce()
	ratio := float64(reduced.Width) / float64(reduced.Height)

	switch {
	case math.Abs(ratio-16.0/9.0) < aspectTolerance:
		return AspectLandscape
	case math.Abs(ratio-9.0/16.0) < aspectTolerance:
		return AspectPortrait
	default:
		return AspectOther
	}
}
