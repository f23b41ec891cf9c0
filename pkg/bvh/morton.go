package bvh

import "github.com/df07/go-bvh/pkg/core"

const (
	mortonScale = 1 << 10 // Quantization steps per axis

	radixBitsPerPass = 6
	radixPasses      = mortonBits / radixBitsPerPass
	radixBuckets     = 1 << radixBitsPerPass
)

// mortonPrimitive pairs a primitiveInfo position with its Morton code
type mortonPrimitive struct {
	infoIndex int
	code      uint32
}

// leftShift3 spreads the low 10 bits of x so that two zero bits follow each one
func leftShift3(x uint32) uint32 {
	if x >= mortonScale {
		x = mortonScale - 1
	}
	x = (x | (x << 16)) & 0x030000FF
	x = (x | (x << 8)) & 0x0300F00F
	x = (x | (x << 4)) & 0x030C30C3
	x = (x | (x << 2)) & 0x09249249
	return x
}

// encodeMorton3 interleaves the quantized coordinates of v (each in [0, 1024])
// into a 30-bit code, x in the lowest bit of every triple
func encodeMorton3(v core.Vec3) uint32 {
	return leftShift3(quantize(v.Z))<<2 | leftShift3(quantize(v.Y))<<1 | leftShift3(quantize(v.X))
}

func quantize(f float64) uint32 {
	if !(f > 0) {
		return 0
	}
	return uint32(f)
}

// radixSort orders primitives by code with a stable LSD radix sort
func radixSort(primitives []mortonPrimitive) {
	temp := make([]mortonPrimitive, len(primitives))
	in, out := primitives, temp
	for pass := 0; pass < radixPasses; pass++ {
		lowBit := uint(pass * radixBitsPerPass)
		mask := uint32(radixBuckets-1) << lowBit

		var bucketCount [radixBuckets]int
		for _, mp := range in {
			bucketCount[(mp.code&mask)>>lowBit]++
		}

		var outIndex [radixBuckets]int
		for i := 1; i < radixBuckets; i++ {
			outIndex[i] = outIndex[i-1] + bucketCount[i-1]
		}

		for _, mp := range in {
			bucket := (mp.code & mask) >> lowBit
			out[outIndex[bucket]] = mp
			outIndex[bucket]++
		}
		in, out = out, in
	}

	// An odd number of passes leaves the result in temp
	if radixPasses%2 == 1 {
		copy(primitives, in)
	}
}
