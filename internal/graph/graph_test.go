package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constNode emits a configurable scalar on port "out"
type constNode struct {
	BaseNode
	executions int
}

func newConstNode(name string, value float64) *constNode {
	n := &constNode{
		BaseNode: NewBaseNode(name,
			map[string]Kind{"value": KindScalar},
			map[string]Kind{},
			map[string]Kind{"out": KindScalar},
		),
	}
	n.Bind(n)
	_ = n.SetParameter("value", ScalarValue(value))
	return n
}

func (n *constNode) Execute() error {
	n.executions++
	v, err := n.RequireParameter("value")
	if err != nil {
		return err
	}
	if err := n.SetOutput("out", v); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}

// addNode emits the sum of its scalar inputs "a" and "b" on port "out"
type addNode struct {
	BaseNode
	executions int
}

func newAddNode(name string) *addNode {
	n := &addNode{
		BaseNode: NewBaseNode(name,
			map[string]Kind{},
			map[string]Kind{"a": KindScalar, "b": KindScalar},
			map[string]Kind{"out": KindScalar},
		),
	}
	n.Bind(n)
	return n
}

func (n *addNode) Execute() error {
	n.executions++
	a, err := n.RequireInput("a")
	if err != nil {
		return err
	}
	b, err := n.RequireInput("b")
	if err != nil {
		return err
	}
	av, _ := a.Scalar()
	bv, _ := b.Scalar()
	if err := n.SetOutput("out", ScalarValue(av+bv)); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}

// textNode has a text input, used for kind-mismatch tests
type textNode struct {
	BaseNode
}

func newTextNode(name string) *textNode {
	n := &textNode{
		BaseNode: NewBaseNode(name,
			map[string]Kind{},
			map[string]Kind{"in": KindText},
			map[string]Kind{"out": KindText},
		),
	}
	n.Bind(n)
	return n
}

func (n *textNode) Execute() error {
	v, err := n.RequireInput("in")
	if err != nil {
		return err
	}
	if err := n.SetOutput("out", v); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}

func buildDiamond(t *testing.T) (*Graph, *constNode, *constNode, *addNode) {
	t.Helper()
	g := New()
	left := newConstNode("left", 1)
	right := newConstNode("right", 2)
	sum := newAddNode("sum")

	require.NoError(t, g.AddNode(left))
	require.NoError(t, g.AddNode(right))
	require.NoError(t, g.AddNode(sum))
	require.NoError(t, g.Connect("left", "out", "sum", "a"))
	require.NoError(t, g.Connect("right", "out", "sum", "b"))
	return g, left, right, sum
}

func TestAddNodeRejectsDuplicateName(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(newConstNode("n", 1)))

	err := g.AddNode(newConstNode("n", 2))
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeDuplicateName))
}

func TestConnectValidations(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(newConstNode("src", 1)))
	require.NoError(t, g.AddNode(newAddNode("dst")))
	require.NoError(t, g.AddNode(newTextNode("txt")))

	err := g.Connect("missing", "out", "dst", "a")
	assert.True(t, IsCode(err, ErrCodeUnknownNode))

	err = g.Connect("src", "out", "missing", "a")
	assert.True(t, IsCode(err, ErrCodeUnknownNode))

	err = g.Connect("src", "nope", "dst", "a")
	assert.True(t, IsCode(err, ErrCodeValidation))

	err = g.Connect("src", "out", "dst", "nope")
	assert.True(t, IsCode(err, ErrCodeValidation))

	// scalar output into text input
	err = g.Connect("src", "out", "txt", "in")
	assert.True(t, IsCode(err, ErrCodeValidation))

	require.NoError(t, g.Connect("src", "out", "dst", "a"))
	err = g.Connect("src", "out", "dst", "a")
	assert.True(t, IsCode(err, ErrCodePortOccupied))
}

func TestConnectRejectsCycle(t *testing.T) {
	g := New()
	a := newAddNode("a")
	b := newAddNode("b")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))

	require.NoError(t, g.Connect("a", "out", "b", "a"))

	err := g.Connect("b", "out", "a", "a")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeCycleIntroduced))

	// self loop
	err = g.Connect("a", "out", "a", "b")
	assert.True(t, IsCode(err, ErrCodeCycleIntroduced))

	// rejected edges leave no trace
	deps, err := g.Dependencies("a")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestExecuteDetectsForcedCycle(t *testing.T) {
	g := New()
	a := newAddNode("a")
	b := newAddNode("b")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))

	// bypass Connect's check to exercise the Kahn guard
	g.edges = append(g.edges,
		edge{src: 0, srcPort: "out", dst: 1, dstPort: "a"},
		edge{src: 1, srcPort: "out", dst: 0, dstPort: "a"},
	)

	err := g.Execute()
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeCycleDetected))
}

func TestExecuteRunsTopologically(t *testing.T) {
	g, _, _, sum := buildDiamond(t)

	require.NoError(t, g.Execute())
	assert.False(t, g.Dirty())
	assert.False(t, sum.Dirty())

	out, err := sum.Output("out")
	require.NoError(t, err)
	v, _ := out.Scalar()
	assert.Equal(t, 3.0, v)
}

func TestNodeOutputAutoExecutes(t *testing.T) {
	g, _, _, _ := buildDiamond(t)

	out, err := g.NodeOutput("sum", "out")
	require.NoError(t, err)
	v, _ := out.Scalar()
	assert.Equal(t, 3.0, v)
	assert.False(t, g.Dirty())
}

func TestCleanNodesAreNotReExecuted(t *testing.T) {
	g, left, right, sum := buildDiamond(t)

	require.NoError(t, g.Execute())
	require.Equal(t, 1, left.executions)
	require.Equal(t, 1, sum.executions)

	// nothing changed: a second pass reuses every memoized output
	g.Invalidate()
	require.NoError(t, g.Execute())
	assert.Equal(t, 1, left.executions)
	assert.Equal(t, 1, right.executions)
	assert.Equal(t, 1, sum.executions)
}

func TestParameterChangeMarksDescendantsDirty(t *testing.T) {
	g, left, right, sum := buildDiamond(t)
	require.NoError(t, g.Execute())

	require.NoError(t, g.SetNodeParameter("left", "value", ScalarValue(10)))
	assert.True(t, left.Dirty())
	assert.True(t, sum.Dirty())
	assert.False(t, right.Dirty())

	out, err := g.NodeOutput("sum", "out")
	require.NoError(t, err)
	v, _ := out.Scalar()
	assert.Equal(t, 12.0, v)
	assert.Equal(t, 1, right.executions)
	assert.Equal(t, 2, sum.executions)
}

func TestConnectRemoveRestoresDependencies(t *testing.T) {
	g := New()
	src := newConstNode("src", 1)
	other := newConstNode("other", 2)
	dst := newAddNode("dst")
	require.NoError(t, g.AddNode(src))
	require.NoError(t, g.AddNode(other))
	require.NoError(t, g.AddNode(dst))
	require.NoError(t, g.Connect("src", "out", "dst", "a"))

	before, err := g.Dependencies("dst")
	require.NoError(t, err)

	require.NoError(t, g.Connect("other", "out", "dst", "b"))
	require.NoError(t, g.RemoveConnection("other", "out", "dst", "b"))

	after, err := g.Dependencies("dst")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	err = g.RemoveConnection("other", "out", "dst", "b")
	assert.True(t, IsCode(err, ErrCodeValidation))
}

func TestRemoveConnectionKeepsSharedDependency(t *testing.T) {
	// two edges between the same pair of nodes: removing one must keep the
	// dependency alive
	g := New()
	src := newConstNode("src", 1)
	dst := newAddNode("dst")
	require.NoError(t, g.AddNode(src))
	require.NoError(t, g.AddNode(dst))
	require.NoError(t, g.Connect("src", "out", "dst", "a"))
	require.NoError(t, g.Connect("src", "out", "dst", "b"))

	require.NoError(t, g.RemoveConnection("src", "out", "dst", "b"))
	deps, err := g.Dependencies("dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"src"}, deps)

	require.NoError(t, g.RemoveConnection("src", "out", "dst", "a"))
	deps, err = g.Dependencies("dst")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestExecutionIsDeterministic(t *testing.T) {
	run := func() float64 {
		g, _, _, _ := buildDiamond(t)
		out, err := g.NodeOutput("sum", "out")
		require.NoError(t, err)
		v, _ := out.Scalar()
		return v
	}
	assert.Equal(t, run(), run())
}

func TestTopologicalOrderBreaksTiesByInsertion(t *testing.T) {
	g := New()
	// three independent sources: order must follow insertion
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddNode(newConstNode(name, 1)))
	}
	order, err := g.topologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestNodeFailureLeavesUpstreamOutputsValid(t *testing.T) {
	g := New()
	src := newConstNode("src", 1)
	sink := newAddNode("sink")
	require.NoError(t, g.AddNode(src))
	require.NoError(t, g.AddNode(sink))
	require.NoError(t, g.Connect("src", "out", "sink", "a"))
	// input "b" is never fed, so sink fails with MISSING_INPUT

	err := g.Execute()
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeMissingInput))
	assert.True(t, g.Dirty())
	assert.False(t, src.Dirty())
	assert.True(t, sink.Dirty())

	out, err := src.Output("out")
	require.NoError(t, err)
	v, _ := out.Scalar()
	assert.Equal(t, 1.0, v)
}

func TestSetParameterValidatesSchema(t *testing.T) {
	n := newConstNode("n", 1)

	err := n.SetParameter("nope", ScalarValue(1))
	assert.True(t, IsCode(err, ErrCodeValidation))

	err = n.SetParameter("value", TextValue("wrong"))
	assert.True(t, IsCode(err, ErrCodeValidation))
}

func TestOutputFailsWhenNotPopulated(t *testing.T) {
	n := newConstNode("n", 1)

	_, err := n.Output("nope")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeMissingOutput))
}

func TestResetDropsOutputs(t *testing.T) {
	n := newConstNode("n", 4)
	_, err := n.Output("out")
	require.NoError(t, err)
	require.False(t, n.Dirty())

	n.Reset()
	assert.True(t, n.Dirty())

	// auto-executes again on read
	out, err := n.Output("out")
	require.NoError(t, err)
	v, _ := out.Scalar()
	assert.Equal(t, 4.0, v)
	assert.Equal(t, 2, n.executions)
}
