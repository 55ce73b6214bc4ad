package upload

// Part is one contiguous byte range of a file. Numbers are 1-based.
type Part struct {
	Number int
	Offset int64
	Length int64
}

// PartCount returns ceil(size/chunkSize).
func PartCount(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// Partition splits size bytes into fixed chunkSize parts; only the last one
// may be shorter.
func Partition(size, chunkSize int64) []Part {
	n := PartCount(size, chunkSize)
	parts := make([]Part, 0, n)
	for i := 0; i < n; i++ {
		off := int64(i) * chunkSize
		length := chunkSize
		if rest := size - off; rest < length {
			length = rest
		}
		parts = append(parts, Part{Number: i + 1, Offset: off, Length: length})
	}
	return parts
}

// Numbers returns the part numbers in order.
func Numbers(parts []Part) []int {
	nums := make([]int, len(parts))
	for i, p := range parts {
		nums[i] = p.Number
	}
	return nums
}
