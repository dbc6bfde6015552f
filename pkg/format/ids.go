package format

// IDAllocator hands out increasing node numbers, starting at 1. Each
// rendering call owns its allocator, so concurrent renders never share a
// counter.
type IDAllocator struct {
	next int
}

// Next returns the next number.
func (a *IDAllocator) Next() int {
	a.next++
	return a.next
}

// Issued returns how many numbers have been handed out.
func (a *IDAllocator) Issued() int { return a.next }
