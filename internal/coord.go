package internal

import (
	"strconv"
	"strings"
)

// paths at most this deep, with every segment < 256, fit the packed form
const maxPackedDepth = 16

// Coord is an epoch's position in its tree: the path of sibling birth
// indexes from the root down. Coords compare lexicographically, so parents
// sort before their children and children before later siblings.
type Coord struct {
	hi, lo uint64
	depth  int

	// set only when the path outgrows the packed form
	path []int
}

// Extend returns the coordinate of a child born at the given sibling index.
func (c Coord) Extend(sibling int) Coord {
	if c.path == nil && c.depth < maxPackedDepth && sibling < 256 {
		next := Coord{hi: c.hi, lo: c.lo, depth: c.depth + 1}
		shift := uint(7-c.depth%8) * 8
		if c.depth < 8 {
			next.hi |= uint64(sibling) << shift
		} else {
			next.lo |= uint64(sibling) << shift
		}
		return next
	}

	path := make([]int, c.depth+1)
	copy(path, c.unpack())
	path[c.depth] = sibling
	return Coord{depth: len(path), path: path}
}

func (c Coord) Depth() int { return c.depth }

// Compare orders two coordinates; a strict prefix sorts first.
func (c Coord) Compare(o Coord) int {
	if c.path == nil && o.path == nil {
		switch {
		case c.hi != o.hi:
			return cmp(c.hi, o.hi)
		case c.lo != o.lo:
			return cmp(c.lo, o.lo)
		default:
			return cmpInt(c.depth, o.depth)
		}
	}

	a, b := c.unpack(), o.unpack()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return cmpInt(a[i], b[i])
		}
	}
	return cmpInt(len(a), len(b))
}

func (c Coord) String() string {
	if c.depth == 0 {
		return "·"
	}

	var b strings.Builder
	for i, seg := range c.unpack() {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(seg))
	}
	return b.String()
}

func (c Coord) unpack() []int {
	if c.path != nil {
		return c.path
	}

	path := make([]int, 0, c.depth)
	for i := 0; i < c.depth; i++ {
		word := c.hi
		if i >= 8 {
			word = c.lo
		}
		shift := uint(7-i%8) * 8
		path = append(path, int(word>>shift&0xff))
	}
	return path
}

func cmp(a, b uint64) int {
	if a < b {
		return -1
	}
	return 1
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
