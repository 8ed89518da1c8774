// Copyright 2025 Certen Protocol
//
// Category-law verification (spec §8 property 5): compose must be
// associative, transform must respect identity, and tensor must be
// bifunctorial (tensor(f,g) applied componentwise equals tensor first
// then apply the paired morphism). These are checked by running sample
// values through a Machine rather than proved symbolically — the
// verifier is a property-style test helper, not a static analysis.

package machine

import "fmt"

// Equal reports deep value equality. Function and Channel values
// compare by identity-of-shape (same body-ref and parameter count for functions,
// same pointer for channels) since they carry non-content-addressable
// runtime state.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VUnit:
		return true
	case VBool:
		return a.Bool == b.Bool
	case VInt:
		return a.Int == b.Int
	case VSymbol:
		return a.Symbol == b.Symbol
	case VProduct:
		return Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case VSum:
		return a.SumTag == b.SumTag && Equal(a.Left, b.Left)
	case VFunction:
		return a.Function.BodyRef == b.Function.BodyRef && len(a.Function.Params) == len(b.Function.Params)
	case VChannel:
		return a.Channel == b.Channel
	case VResource:
		return a.Resource == b.Resource
	default:
		return false
	}
}

// Identity is the morphism that returns its argument unchanged. Every
// morphism m must satisfy compose(identity, m) == m == compose(m,
// identity).
func Identity(v *Value) (*Value, error) { return v, nil }

// VerifyComposeAssociative checks compose(compose(f,g),h) == compose(f,
// compose(g,h)) by applying both associations to every sample and
// comparing results.
func VerifyComposeAssociative(f, g, h Morphism, samples []*Value) error {
	left := chain(chain(f, g), h)
	right := chain(f, chain(g, h))
	for i, s := range samples {
		lv, err := left(s)
		if err != nil {
			return fmt.Errorf("category: left association failed on sample %d: %w", i, err)
		}
		rv, err := right(s)
		if err != nil {
			return fmt.Errorf("category: right association failed on sample %d: %w", i, err)
		}
		if !Equal(lv, rv) {
			return fmt.Errorf("category: compose not associative on sample %d", i)
		}
	}
	return nil
}

// VerifyTransformIdentity checks compose(identity, m) == m == compose(m,
// identity) for every sample.
func VerifyTransformIdentity(m Morphism, samples []*Value) error {
	left := chain(Identity, m)
	right := chain(m, Identity)
	for i, s := range samples {
		base, err := m(s)
		if err != nil {
			return fmt.Errorf("category: base morphism failed on sample %d: %w", i, err)
		}
		lv, err := left(s)
		if err != nil {
			return err
		}
		rv, err := right(s)
		if err != nil {
			return err
		}
		if !Equal(lv, base) || !Equal(rv, base) {
			return fmt.Errorf("category: identity law violated on sample %d", i)
		}
	}
	return nil
}

// VerifyTensorBifunctorial checks that pairing-then-transforming
// equals transforming-then-pairing: tensor(f(a), g(b)) == (f (x) g)(tensor(a,b)).
func VerifyTensorBifunctorial(f, g Morphism, samplesA, samplesB []*Value) error {
	if len(samplesA) != len(samplesB) {
		return fmt.Errorf("category: sample sets must be equal length")
	}
	paired := func(v *Value) (*Value, error) {
		if v == nil || v.Kind != VProduct {
			return nil, fmt.Errorf("tensor morphism expects a product value")
		}
		fa, err := f(v.Left)
		if err != nil {
			return nil, err
		}
		gb, err := g(v.Right)
		if err != nil {
			return nil, err
		}
		return Product(fa, gb), nil
	}

	for i := range samplesA {
		a, b := samplesA[i], samplesB[i]
		fa, err := f(a)
		if err != nil {
			return err
		}
		gb, err := g(b)
		if err != nil {
			return err
		}
		expected := Product(fa, gb)

		actual, err := paired(Product(a, b))
		if err != nil {
			return err
		}
		if !Equal(expected, actual) {
			return fmt.Errorf("category: tensor not bifunctorial on sample %d", i)
		}
	}
	return nil
}

func chain(first, second Morphism) Morphism {
	return func(v *Value) (*Value, error) {
		mid, err := first(v)
		if err != nil {
			return nil, err
		}
		return second(mid)
	}
}
