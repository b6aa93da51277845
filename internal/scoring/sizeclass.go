package scoring

// Guild size limits. Pairwise metrics dominate cost, so the ceiling
// bounds request latency as well as calibration effort.
const (
	MinGuildSize = 2
	MaxGuildSize = 20
)

// SizeClass strata group guild sizes so each calibration cell keeps
// enough samples. Raw-score magnitudes shift with guild size, which is
// why size is part of the calibration key.
type SizeClass string

const (
	SizePair   SizeClass = "pair"   // 2
	SizeSmall  SizeClass = "small"  // 3-4
	SizeMedium SizeClass = "medium" // 5-7
	SizeLarge  SizeClass = "large"  // 8-20
)

// AllSizeClasses in ascending order.
var AllSizeClasses = []SizeClass{SizePair, SizeSmall, SizeMedium, SizeLarge}

// SizeClassFor maps a guild size to its calibration stratum.
func SizeClassFor(n int) SizeClass {
	switch {
	case n <= 2:
		return SizePair
	case n <= 4:
		return SizeSmall
	case n <= 7:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// RepresentativeSize returns the guild size sampled for a class during
// calibration (the midpoint of the class range).
func (c SizeClass) RepresentativeSize() int {
	switch c {
	case SizePair:
		return 2
	case SizeSmall:
		return 4
	case SizeMedium:
		return 6
	default:
		return 9
	}
}
