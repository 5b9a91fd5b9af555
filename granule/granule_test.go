package granule

import "testing"

import "github.com/stretchr/testify/assert"

func TestToGranulesRounding(t *testing.T) {
	cases := map[uintptr]uintptr{
		0:  0,
		1:  1,
		7:  1,
		8:  1,
		9:  2,
		16: 2,
		17: 3,
	}
	for n, want := range cases {
		assert.Equalf(t, want, ToGranules(n), "ToGranules(%d)", n)
	}
}

func TestToSizeClassClosure(t *testing.T) {
	// P3: for every g in [1..32], the returned class size is >= g and
	// no smaller class would do.
	for g := uintptr(1); g <= LargeObjectThreshold; g++ {
		c := ToSizeClass(g)
		got := ClassSize(c)
		assert.GreaterOrEqualf(t, got, int(g), "class for g=%d", g)
		if c > 0 {
			assert.Lessf(t, ClassSize(c-1), int(g), "class below chosen one for g=%d should be too small", g)
		}
	}
}

func TestIsLarge(t *testing.T) {
	assert.False(t, IsLarge(32))
	assert.True(t, IsLarge(33))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uintptr(8), AlignUp(1, 8))
	assert.Equal(t, uintptr(8), AlignUp(8, 8))
	assert.Equal(t, uintptr(16), AlignUp(9, 8))
}
