// Copyright 2025 Certen Protocol

package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocConsumeRoundTrip(t *testing.T) {
	m := NewMachine()
	r := m.FreshRegister()
	v := m.FreshRegister()

	prog := Program{
		NewAlloc(Int(42), r),
		NewConsume(r, v),
	}
	require.NoError(t, m.Run(prog))

	snap, ok := m.RegisterSnapshot(v)
	require.True(t, ok)
	require.Equal(t, Live, snap.State)
	require.Equal(t, int64(42), snap.Value.Int)

	rSnap, ok := m.RegisterSnapshot(r)
	require.True(t, ok)
	require.Equal(t, Consumed, rSnap.State)
}

func TestDoubleConsumeRejected(t *testing.T) {
	m := NewMachine()
	r := m.FreshRegister()
	v1 := m.FreshRegister()
	v2 := m.FreshRegister()

	prog := Program{
		NewAlloc(Int(1), r),
		NewConsume(r, v1),
		NewConsume(r, v2),
	}
	err := m.Run(prog)
	require.Error(t, err)
	var linErr *LinearityError
	require.ErrorAs(t, err, &linErr)
}

func TestTransformAppliesMorphism(t *testing.T) {
	m := NewMachine()
	m.DefineMorphism("increment", func(v *Value) (*Value, error) {
		return Int(v.Int + 1), nil
	})

	x := m.FreshRegister()
	y := m.FreshRegister()
	prog := Program{
		NewAlloc(Int(10), x),
		NewTransform("increment", x, y),
	}
	require.NoError(t, m.Run(prog))

	snap, _ := m.RegisterSnapshot(y)
	require.Equal(t, int64(11), snap.Value.Int)
}

func TestTensorPairsValues(t *testing.T) {
	m := NewMachine()
	a := m.FreshRegister()
	b := m.FreshRegister()
	c := m.FreshRegister()

	prog := Program{
		NewAlloc(Int(1), a),
		NewAlloc(Symbol("x"), b),
		NewTensor(a, b, c),
	}
	require.NoError(t, m.Run(prog))

	snap, _ := m.RegisterSnapshot(c)
	require.Equal(t, VProduct, snap.Value.Kind)
	require.Equal(t, int64(1), snap.Value.Left.Int)
	require.Equal(t, "x", snap.Value.Right.Symbol)
}

func TestComposeChainsMorphisms(t *testing.T) {
	m := NewMachine()
	f := m.FreshRegister()
	g := m.FreshRegister()
	h := m.FreshRegister()

	fnF := Closure(&Function{Params: []string{"x"}, BodyRef: 1})
	fnG := Closure(&Function{Params: []string{"x"}, BodyRef: 2})

	prog := Program{
		NewAlloc(fnF, f),
		NewAlloc(fnG, g),
		NewCompose(f, g, h),
	}
	require.NoError(t, m.Run(prog))

	snap, _ := m.RegisterSnapshot(h)
	require.Equal(t, VFunction, snap.Value.Kind)
	require.Equal(t, 2, snap.Value.Function.BodyRef)
}

func TestStaticLinearityDetectsDoubleWrite(t *testing.T) {
	prog := Program{
		NewAlloc(Int(1), Reg(0)),
		NewAlloc(Int(2), Reg(0)),
	}
	violations := CheckLinearity(prog)
	require.Len(t, violations, 1)
	require.False(t, IsLinear(prog))
}

func TestStaticLinearityDetectsDoubleConsume(t *testing.T) {
	prog := Program{
		NewAlloc(Int(1), Reg(0)),
		NewConsume(Reg(0), Reg(1)),
		NewConsume(Reg(0), Reg(2)),
	}
	violations := CheckLinearity(prog)
	require.Len(t, violations, 1)
}

func TestStaticLinearityAllowsSharedTransformReads(t *testing.T) {
	// Two projection transforms reading the same live register (the
	// shape pkg/lang uses to lower let-tensor) is not a linearity
	// violation: transform performs a non-consuming read.
	prog := Program{
		NewAlloc(Product(Int(1), Int(2)), Reg(0)),
		NewTransform("__project_left__", Reg(0), Reg(1)),
		NewTransform("__project_right__", Reg(0), Reg(2)),
	}
	require.True(t, IsLinear(prog))
}

func TestStaticLinearityDetectsTransformReadAfterConsume(t *testing.T) {
	prog := Program{
		NewAlloc(Int(1), Reg(0)),
		NewConsume(Reg(0), Reg(1)),
		NewTransform("__project_left__", Reg(0), Reg(2)),
	}
	violations := CheckLinearity(prog)
	require.Len(t, violations, 1)
	require.False(t, IsLinear(prog))
}

func TestStaticLinearityAcceptsWellFormedProgram(t *testing.T) {
	prog := Program{
		NewAlloc(Int(1), Reg(0)),
		NewAlloc(Int(2), Reg(1)),
		NewTensor(Reg(0), Reg(1), Reg(2)),
		NewConsume(Reg(2), Reg(3)),
	}
	require.True(t, IsLinear(prog))
}

func sampleIntValues() []*Value {
	return []*Value{Int(0), Int(1), Int(-5), Int(100)}
}

func TestCategoryLaws(t *testing.T) {
	inc := func(v *Value) (*Value, error) { return Int(v.Int + 1), nil }
	double := func(v *Value) (*Value, error) { return Int(v.Int * 2), nil }
	negate := func(v *Value) (*Value, error) { return Int(-v.Int), nil }

	samples := sampleIntValues()

	require.NoError(t, VerifyComposeAssociative(inc, double, negate, samples))
	require.NoError(t, VerifyTransformIdentity(inc, samples))
	require.NoError(t, VerifyTransformIdentity(double, samples))

	samplesB := sampleIntValues()
	require.NoError(t, VerifyTensorBifunctorial(inc, double, samples, samplesB))
}

func TestCategoryLawsDetectIdentityMismatch(t *testing.T) {
	// A morphism that behaves differently depending on identity of call
	// count trips the identity law; simulate with a closure over a
	// counter shared across both sides of the comparison.
	calls := 0
	flaky := func(v *Value) (*Value, error) {
		calls++
		if calls%2 == 0 {
			return Int(v.Int + 1), nil
		}
		return Int(v.Int), nil
	}

	err := VerifyTransformIdentity(flaky, []*Value{Int(1)})
	require.Error(t, err)
}
