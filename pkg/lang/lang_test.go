// Copyright 2025 Certen Protocol

package lang

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/causality-labs/causality/pkg/machine"
	"github.com/causality-labs/causality/pkg/types"
)

func runEntry(t *testing.T, module *Module) *machine.Value {
	t.Helper()
	rt := NewRuntime(module)
	m := rt.NewMachine()
	require.NoError(t, m.Run(module.Entry.Prog))
	snap, ok := m.RegisterSnapshot(module.Entry.Result)
	require.True(t, ok)
	return snap.Value
}

func TestInferLiterals(t *testing.T) {
	term := AllocLit(types.Int(), machine.Int(5))
	ty, err := Infer(term, Env{}, Capabilities{})
	require.NoError(t, err)
	require.Equal(t, types.TInt, ty.Kind)
}

func TestInferTensorAndLetTensor(t *testing.T) {
	a := AllocLit(types.Int(), machine.Int(1))
	b := AllocLit(types.Symbol(), machine.Symbol("x"))
	pair := Tensor(a, b)

	ty, err := Infer(pair, Env{}, Capabilities{})
	require.NoError(t, err)
	require.Equal(t, types.TProduct, ty.Kind)

	destructured := LetTensor("x", "y", pair, Ref("x"))
	ty2, err := Infer(destructured, Env{}, Capabilities{})
	require.NoError(t, err)
	require.Equal(t, types.TInt, ty2.Kind)
}

func TestInferLambdaApply(t *testing.T) {
	body := Ref("x")
	fn := Lambda("x", types.Int(), body)
	arg := AllocLit(types.Int(), machine.Int(7))
	app := Apply(fn, arg)

	ty, err := Infer(app, Env{}, Capabilities{})
	require.NoError(t, err)
	require.Equal(t, types.TInt, ty.Kind)
}

func TestInferCase(t *testing.T) {
	sumType := types.Sum(types.Int(), types.Symbol())
	scrutinee := Inl(sumType, AllocLit(types.Int(), machine.Int(3)))
	caseTerm := Case(scrutinee, []CaseBranch{
		{Label: "inl", Bind: "n", Body: Ref("n")},
		{Label: "inr", Bind: "s", Body: AllocLit(types.Int(), machine.Int(0))},
	})
	ty, err := Infer(caseTerm, Env{}, Capabilities{})
	require.NoError(t, err)
	require.Equal(t, types.TInt, ty.Kind)
}

func TestInferAtRequiresCapability(t *testing.T) {
	loc := types.NewDomain("server")
	term := At(loc, AllocLit(types.Int(), machine.Int(1)))

	_, err := Infer(term, Env{}, Capabilities{})
	require.Error(t, err)

	_, err = Infer(term, Env{}, Capabilities{loc.String(): true})
	require.NoError(t, err)
}

func TestLowerAndRunAllocConsume(t *testing.T) {
	term := Consume(AllocLit(types.Int(), machine.Int(42)))
	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.Equal(t, int64(42), result.Int)
}

func TestLowerAndRunTensorLetTensor(t *testing.T) {
	a := AllocLit(types.Int(), machine.Int(10))
	b := AllocLit(types.Symbol(), machine.Symbol("hello"))
	term := LetTensor("x", "y", Tensor(a, b), Ref("y"))

	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.Equal(t, "hello", result.Symbol)
}

func TestLowerAndRunLambdaApply(t *testing.T) {
	fn := Lambda("x", types.Int(), Ref("x"))
	arg := AllocLit(types.Int(), machine.Int(99))
	term := Apply(fn, arg)

	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.Equal(t, int64(99), result.Int)
}

func TestLowerAndRunCaseSum(t *testing.T) {
	sumType := types.Sum(types.Int(), types.Symbol())
	scrutinee := Inr(sumType, AllocLit(types.Symbol(), machine.Symbol("branch")))
	term := Case(scrutinee, []CaseBranch{
		{Label: "inl", Bind: "n", Body: AllocLit(types.Symbol(), machine.Symbol("unreached"))},
		{Label: "inr", Bind: "s", Body: Ref("s")},
	})

	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.Equal(t, "branch", result.Symbol)
}

func TestLowerAndRunSessionSend(t *testing.T) {
	protocol := types.Send(types.Int(), types.End())
	loc := types.NewLocal()

	term := Send(NewChannelTerm(protocol, loc), AllocLit(types.Int(), machine.Int(123)))
	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.Equal(t, machine.VChannel, result.Kind)
	require.Equal(t, types.SessionEnd, result.Channel.Protocol.Kind)
	require.Equal(t, int64(123), result.Channel.Queue[0].Int)
}

func TestLowerAndRunSessionReceive(t *testing.T) {
	protocol := types.Receive(types.Bool(), types.End())
	loc := types.NewLocal()
	ch := machine.NewChannel(protocol, loc)
	ch.Queue = append(ch.Queue, machine.Bool(true))

	channelType := types.SessionType(protocol)
	term := LetTensor("ack", "chan2",
		Receive(AllocLit(channelType, machine.ChannelValue(ch))),
		Ref("ack"))

	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.True(t, result.Bool)
	require.Equal(t, types.SessionEnd, ch.Protocol.Kind)
}

func TestLowerAndRunSessionClose(t *testing.T) {
	loc := types.NewLocal()
	ch := machine.NewChannel(types.End(), loc)
	channelType := types.SessionType(types.End())

	term := Close(AllocLit(channelType, machine.ChannelValue(ch)))
	module, err := Lower(term)
	require.NoError(t, err)

	result := runEntry(t, module)
	require.Equal(t, machine.VUnit, result.Kind)
	require.Equal(t, machine.ChannelClosed, ch.State)
}
