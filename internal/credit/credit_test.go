package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		area     float64
		ndvi     float64
		expected float64
	}{
		{name: "two hectares half ndvi", area: 2, ndvi: 0.5, expected: 100},
		{name: "ten hectares half ndvi", area: 10, ndvi: 0.5, expected: 500},
		{name: "zero ndvi", area: 42.5, ndvi: 0, expected: 0},
		{name: "full ndvi", area: 1.25, ndvi: 1, expected: 125},
		{name: "no float drift", area: 0.1, ndvi: 0.3, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compute(tt.area, tt.ndvi))
		})
	}
}

func TestCompute_Linear(t *testing.T) {
	assert.Equal(t, 2*Compute(3, 0.4), Compute(6, 0.4))
	assert.Equal(t, 2*Compute(3, 0.4), Compute(3, 0.8))
	assert.Equal(t, Compute(7.3, 0.61), Compute(7.3, 0.61))
}

func TestSumAndSub(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 0.0, Sum())
	assert.Equal(t, 300.0, Sub(500, 200))
	assert.Equal(t, 0.1, Sub(0.3, 0.2))
}

func TestExceeds(t *testing.T) {
	assert.True(t, Exceeds(500.000001, 500))
	assert.False(t, Exceeds(500, 500))
	assert.False(t, Exceeds(Sum(0.1, 0.2), 0.3))
}
