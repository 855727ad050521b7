package graph

import "fmt"

// Executor is the algorithmic part of a node. Execute reads inputs and
// parameters, validates them, and populates outputs.
type Executor interface {
	Execute() error
}

// Node is a typed processing element in the graph. Concrete nodes embed
// BaseNode and implement Execute; the unexported methods seal the interface
// so the graph can rely on BaseNode's bookkeeping.
type Node interface {
	Executor

	Name() string
	ParameterSchema() map[string]Kind
	InputPorts() map[string]Kind
	OutputPorts() map[string]Kind
	SetParameter(name string, v Value) error
	SetInput(name string, v Value) error
	Parameter(name string) (Value, bool)
	Input(name string) (Value, bool)
	Output(name string) (Value, error)
	Dirty() bool
	Reset()

	setInputFromEdge(name string, v Value) bool
	markDirty()
}

// BaseNode carries the state machine shared by all nodes: parameter, input
// and output maps plus the dirty flag. Outputs are stale whenever dirty is
// true; a clean node has every declared output populated.
type BaseNode struct {
	name    string
	params  map[string]Value
	inputs  map[string]Value
	outputs map[string]Value
	dirty   bool

	paramSchema map[string]Kind
	inSchema    map[string]Kind
	outSchema   map[string]Kind

	exec Executor
}

// NewBaseNode creates the shared node state with the declared schemas
func NewBaseNode(name string, params, inputs, outputs map[string]Kind) BaseNode {
	return BaseNode{
		name:        name,
		params:      make(map[string]Value),
		inputs:      make(map[string]Value),
		outputs:     make(map[string]Value),
		dirty:       true,
		paramSchema: params,
		inSchema:    inputs,
		outSchema:   outputs,
	}
}

// Bind attaches the concrete executor so Output can run it on demand
func (b *BaseNode) Bind(exec Executor) {
	b.exec = exec
}

func (b *BaseNode) Name() string {
	return b.name
}

func (b *BaseNode) ParameterSchema() map[string]Kind {
	return b.paramSchema
}

func (b *BaseNode) InputPorts() map[string]Kind {
	return b.inSchema
}

func (b *BaseNode) OutputPorts() map[string]Kind {
	return b.outSchema
}

// SetParameter stores a parameter value, marks the node dirty and drops its
// outputs. The name and variant are validated against the declared schema.
func (b *BaseNode) SetParameter(name string, v Value) error {
	if err := checkSchema(b.paramSchema, b.name, "parameter", name, v); err != nil {
		return err
	}
	b.params[name] = v.Clone()
	b.invalidate()
	return nil
}

// SetInput stores an input value, marks the node dirty and drops its outputs
func (b *BaseNode) SetInput(name string, v Value) error {
	if err := checkSchema(b.inSchema, b.name, "input", name, v); err != nil {
		return err
	}
	b.inputs[name] = v.Clone()
	b.invalidate()
	return nil
}

// Parameter returns the named parameter, reporting whether it is set
func (b *BaseNode) Parameter(name string) (Value, bool) {
	v, ok := b.params[name]
	return v, ok
}

// Input returns the named input, reporting whether it is set
func (b *BaseNode) Input(name string) (Value, bool) {
	v, ok := b.inputs[name]
	return v, ok
}

// Output returns the named output, executing the node first if it is dirty.
// Fails with MISSING_OUTPUT if the execute did not populate the port.
func (b *BaseNode) Output(name string) (Value, error) {
	if b.dirty {
		if b.exec == nil {
			return Value{}, NewGraphError(ErrCodeMissingOutput, b.name,
				"node has no bound executor", nil)
		}
		if err := b.exec.Execute(); err != nil {
			return Value{}, err
		}
	}
	v, ok := b.outputs[name]
	if !ok {
		return Value{}, &GraphError{
			Code:    ErrCodeMissingOutput,
			Node:    b.name,
			Port:    name,
			Message: fmt.Sprintf("output %q was not populated", name),
		}
	}
	return v, nil
}

// Dirty reports whether the node's outputs are stale
func (b *BaseNode) Dirty() bool {
	return b.dirty
}

// Reset drops all outputs and marks the node dirty
func (b *BaseNode) Reset() {
	b.invalidate()
}

// SetOutput records an output during Execute. The port must be declared.
func (b *BaseNode) SetOutput(name string, v Value) error {
	if err := checkSchema(b.outSchema, b.name, "output", name, v); err != nil {
		return err
	}
	b.outputs[name] = v
	return nil
}

// MarkClean flags the node as executed. Callers must have populated every
// declared output first.
func (b *BaseNode) MarkClean() {
	b.dirty = false
}

// RequireInput fetches a mandatory input, failing with MISSING_INPUT
func (b *BaseNode) RequireInput(name string) (Value, error) {
	v, ok := b.inputs[name]
	if !ok {
		return Value{}, &GraphError{
			Code:    ErrCodeMissingInput,
			Node:    b.name,
			Port:    name,
			Message: fmt.Sprintf("input %q is not set", name),
		}
	}
	return v, nil
}

// RequireParameter fetches a mandatory parameter, failing with MISSING_PARAMETER
func (b *BaseNode) RequireParameter(name string) (Value, error) {
	v, ok := b.params[name]
	if !ok {
		return Value{}, &GraphError{
			Code:    ErrCodeMissingParameter,
			Node:    b.name,
			Port:    name,
			Message: fmt.Sprintf("parameter %q is not set", name),
		}
	}
	return v, nil
}

// ValidationError builds a VALIDATION_ERROR scoped to this node
func (b *BaseNode) ValidationError(format string, args ...any) error {
	return NewGraphError(ErrCodeValidation, b.name, fmt.Sprintf(format, args...), nil)
}

// setInputFromEdge writes an input during graph propagation. The dirty flag
// is only raised when the value actually changed, so clean stages keep their
// memoized outputs across passes.
func (b *BaseNode) setInputFromEdge(name string, v Value) bool {
	if cur, ok := b.inputs[name]; ok && cur.Equal(v) {
		return false
	}
	b.inputs[name] = v.Clone()
	b.invalidate()
	return true
}

// markDirty flags outputs as stale without dropping them. Used by the graph
// to cascade invalidation to descendants.
func (b *BaseNode) markDirty() {
	b.dirty = true
}

func (b *BaseNode) invalidate() {
	b.dirty = true
	b.outputs = make(map[string]Value)
}

func checkSchema(schema map[string]Kind, node, role, name string, v Value) error {
	kind, ok := schema[name]
	if !ok {
		return NewGraphError(ErrCodeValidation, node,
			fmt.Sprintf("unknown %s %q", role, name), nil)
	}
	if v.Kind() != kind {
		return NewGraphError(ErrCodeValidation, node,
			fmt.Sprintf("%s %q wants %s, got %s", role, name, kind, v.Kind()), nil)
	}
	return nil
}
