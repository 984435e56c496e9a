package param

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/constraint"
)

func TestDefaultParameter(t *testing.T) {
	p, err := New("alpha")
	require.NoError(t, err)

	assert.Equal(t, "alpha", p.Name())
	assert.Equal(t, 0.0, p.Raw())
	assert.InDelta(t, math.Log(2), p.Value(), 1e-12)

	_, ok := p.LogPrior()
	assert.False(t, ok, "no prior attached by default")
}

func TestSetValueRoundTrip(t *testing.T) {
	p, err := New("beta")
	require.NoError(t, err)

	for _, v := range []float64{1e-4, 0.5, 1.0, 3.25, 1000} {
		require.NoError(t, p.SetValue(v))
		assert.InDelta(t, v, p.Value(), 1e-9*math.Max(1, v), "value %v", v)
	}
}

func TestSetValueDomainError(t *testing.T) {
	p, err := New("alpha")
	require.NoError(t, err)
	require.NoError(t, p.SetValue(2.0))

	err = p.SetValue(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, constraint.ErrOutOfDomain))

	// The failed set must not clobber the stored value.
	assert.InDelta(t, 2.0, p.Value(), 1e-9)
}

func TestWithValueOption(t *testing.T) {
	p, err := New("alpha", WithValue(4.5))
	require.NoError(t, err)
	assert.InDelta(t, 4.5, p.Value(), 1e-9)

	_, err = New("alpha", WithValue(-4.5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, constraint.ErrOutOfDomain))

	_, err = New("alpha", WithValue(1), WithRaw(0))
	require.Error(t, err)
}

func TestWithRawAndTransform(t *testing.T) {
	p, err := New("offset", WithTransform(constraint.Identity{}), WithRaw(-3))
	require.NoError(t, err)
	assert.Equal(t, -3.0, p.Value())

	p.SetRaw(7)
	assert.Equal(t, 7.0, p.Value())

	require.NoError(t, p.SetValue(-12))
	assert.Equal(t, -12.0, p.Raw())
}

func TestGammaPrior(t *testing.T) {
	p, err := New("alpha", WithValue(1.0), WithPrior(GammaPrior(2, 1)))
	require.NoError(t, err)

	lp, ok := p.LogPrior()
	require.True(t, ok)
	// Gamma(2,1) density at 1 is x*exp(-x) = exp(-1), so log density is -1.
	assert.InDelta(t, -1.0, lp, 1e-9)
}

func TestLogNormalPriorTracksValue(t *testing.T) {
	p, err := New("beta", WithPrior(LogNormalPrior(0, 1)))
	require.NoError(t, err)

	before, ok := p.LogPrior()
	require.True(t, ok)

	require.NoError(t, p.SetValue(10))
	after, ok := p.LogPrior()
	require.True(t, ok)

	assert.NotEqual(t, before, after, "prior must be evaluated on the current value")
}

func TestSetPriorDetach(t *testing.T) {
	p, err := New("alpha", WithPrior(NormalPrior(0, 1)))
	require.NoError(t, err)

	p.SetPrior(nil)
	_, ok := p.LogPrior()
	assert.False(t, ok)
}
