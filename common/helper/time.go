package helper

// HourBucket rounds a Unix-seconds timestamp down to the start of its hour.
// Producers round bucketing windows before cache-key formation so that
// near-identical queries share a cache slot.
func HourBucket(unixSeconds int64) int64 {
	return unixSeconds - unixSeconds%3600
}

// BadgeTier decomposes a badge level (0-116) into tier and subtier.
func BadgeTier(level int) (tier, subtier int) {
	return level / 10, level % 10
}
