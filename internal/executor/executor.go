package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/gqlexec/internal/async"
	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/validator"
	"github.com/hanpama/gqlexec/internal/value"
)

// Strategy decides how sibling fields and list elements are scheduled.
type Strategy int

const (
	// Parallel starts every sibling at once and joins them.
	Parallel Strategy = iota
	// Serial starts a sibling only after the previous one has completed.
	Serial
)

func (s Strategy) String() string {
	switch s {
	case Parallel:
		return "parallel"
	case Serial:
		return "serial"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps "parallel" or "serial" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "parallel", "":
		return Parallel, nil
	case "serial":
		return Serial, nil
	}
	return 0, fmt.Errorf("unknown execution strategy %q", name)
}

// Executor runs validated documents against one schema. It keeps no state
// between requests and may be shared by concurrent callers.
type Executor struct {
	schema         *schema.Schema
	strategy       Strategy
	maxConcurrency int
	bus            *eventbus.Bus
}

// Option configures an Executor.
type Option func(*Executor)

// WithStrategy selects the strategy for query fields. Mutation and
// subscription root fields always run serially.
func WithStrategy(s Strategy) Option { return func(e *Executor) { e.strategy = s } }

// WithMaxConcurrency caps how many siblings of one selection set, or
// elements of one list, are in flight at once under the Parallel strategy.
// Zero means no cap.
func WithMaxConcurrency(n int) Option { return func(e *Executor) { e.maxConcurrency = n } }

// WithBus publishes events.FieldResolved for every resolver call.
func WithBus(b *eventbus.Bus) Option { return func(e *Executor) { e.bus = b } }

func NewExecutor(s *schema.Schema, opts ...Option) *Executor {
	e := &Executor{schema: s}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Schema() *schema.Schema { return e.schema }

// Request is one execution of an already validated document.
type Request struct {
	Document      *ast.QueryDocument
	OperationName string
	// Variables are the caller's raw values, typically decoded JSON.
	Variables map[string]any
	// RootValue is the source handed to root field resolvers.
	RootValue any
	// Context is shared by reference with every resolver of the request.
	Context any
}

// execution is the state of one request.
type execution struct {
	ctx       context.Context
	schema    *schema.Schema
	doc       *ast.QueryDocument
	operation *ast.OperationDefinition
	vars      map[string]value.Value
	request   any
	strategy  Strategy
	limit     int
	bus       *eventbus.Bus

	mu     sync.Mutex
	errors gqlerror.List
}

// ExecuteRequest selects the operation, coerces variables and executes it.
// Failures before execution leave Data undefined.
func (e *Executor) ExecuteRequest(ctx context.Context, req Request) *ExecutionResult {
	op, err := GetOperation(req.Document, req.OperationName)
	if err != nil {
		return &ExecutionResult{Errors: gqlerror.List{err}}
	}
	vars, errs := validator.CoerceVariableValues(e.schema, op, req.Variables)
	if len(errs) > 0 {
		return &ExecutionResult{Errors: errs}
	}
	rootType := e.schema.RootType(op.Operation)
	if rootType == nil {
		return &ExecutionResult{Errors: gqlerror.List{{
			Message:   fmt.Sprintf("Schema is not configured to execute %s operation.", op.Operation),
			Locations: language.LocationOf(op.Position),
		}}}
	}

	ex := &execution{
		ctx:       ctx,
		schema:    e.schema,
		doc:       req.Document,
		operation: op,
		vars:      vars,
		request:   req.Context,
		strategy:  e.strategy,
		limit:     e.maxConcurrency,
		bus:       e.bus,
	}
	fields := ex.collectFields(rootType, op.SelectionSet)
	serial := op.Operation != ast.Query || ex.strategy == Serial
	data, ferr := ex.executeFields(rootType, req.RootValue, nil, fields, serial)
	if ferr != nil {
		ex.record(ferr)
		return &ExecutionResult{Data: value.NewNull(), Errors: ex.errors}
	}
	return &ExecutionResult{Data: value.NewObject(data), Errors: ex.errors}
}

// GetOperation picks the operation named name, or the only operation when
// name is empty.
func GetOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, *gqlerror.Error) {
	if name == "" {
		switch len(doc.Operations) {
		case 1:
			return doc.Operations[0], nil
		case 0:
			return nil, &gqlerror.Error{Message: "Must provide an operation."}
		}
		return nil, &gqlerror.Error{Message: "Must provide operation name if query contains multiple operations."}
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	return nil, &gqlerror.Error{Message: fmt.Sprintf("Unknown operation named %q.", name)}
}

func (ex *execution) record(err error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.errors = append(ex.errors, asGraphQLError(err))
}

// executeFields completes every collected field of one object. An error is
// returned only when a non-null field failed, which nulls the whole object.
func (ex *execution) executeFields(parent *schema.Type, source any, path ast.Path, fields []*collectedField, serial bool) (*value.Map, error) {
	results := make([]value.Value, len(fields))
	if serial {
		for i, f := range fields {
			v, err := ex.executeField(parent, source, f, path)
			if err != nil {
				return nil, err
			}
			results[i] = v
		}
	} else {
		errs := make([]error, len(fields))
		var g errgroup.Group
		if ex.limit > 0 {
			g.SetLimit(ex.limit)
		}
		for i, f := range fields {
			g.Go(func() error {
				results[i], errs[i] = ex.executeField(parent, source, f, path)
				return nil
			})
		}
		_ = g.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	out := value.NewMap(len(fields))
	for i, f := range fields {
		if results[i].IsUndefined() {
			continue
		}
		out.Set(f.ResponseName, results[i])
	}
	return out, nil
}

// fieldInfo describes the field whose value is being completed.
type fieldInfo struct {
	parent *schema.Type
	def    *schema.Field
	nodes  []*ast.Field
}

func (fi *fieldInfo) coordinate() string { return fi.parent.Name + "." + fi.def.Name }

func (ex *execution) executeField(parent *schema.Type, source any, f *collectedField, parentPath ast.Path) (value.Value, error) {
	node := f.Fields[0]
	path := appendPath(parentPath, ast.PathName(f.ResponseName))
	if node.Name == schema.TypenameFieldName {
		return value.NewString(parent.Name), nil
	}
	def := ex.schema.Field(parent, node.Name)
	if def == nil {
		return value.Value{}, nil
	}
	fi := &fieldInfo{parent: parent, def: def, nodes: f.Fields}

	args, err := coerceArguments(ex.schema, def.Arguments, node.Arguments, ex.vars)
	if err != nil {
		return ex.handleFieldError(def.Type, locatedError(err, fi.nodes, path))
	}

	resolve := def.Resolve
	if resolve == nil {
		resolve = schema.DefaultResolve
	}
	params := schema.ResolveParams{
		Context:      ex.ctx,
		Source:       source,
		Args:         args,
		Request:      ex.request,
		FieldName:    def.Name,
		Fields:       f.Fields,
		SelectionSet: mergeSelectionSets(f.Fields),
		ParentType:   parent,
		ReturnType:   def.Type,
		Path:         path,
		Schema:       ex.schema,
		Operation:    ex.operation,
		Variables:    ex.vars,
	}

	start := time.Now()
	raw, err := async.From(invoke(resolve, params)).Await(ex.ctx)
	eventbus.Publish(ex.ctx, ex.bus, events.FieldResolved{
		ParentType: parent.Name,
		Field:      def.Name,
		Path:       path,
		Duration:   time.Since(start),
		Err:        err,
	})
	if err != nil {
		return ex.handleFieldError(def.Type, locatedError(err, fi.nodes, path))
	}

	v, err := ex.completeValue(fi, def.Type, raw, path)
	if err != nil {
		return ex.handleFieldError(def.Type, err)
	}
	return v, nil
}

// handleFieldError records err and nulls the field when its type allows
// null; otherwise err travels to the parent.
func (ex *execution) handleFieldError(ref *schema.TypeRef, err error) (value.Value, error) {
	if ref.IsNonNull() {
		return value.Value{}, err
	}
	ex.record(err)
	return value.NewNull(), nil
}

func invoke(fn schema.ResolveFn, p schema.ResolveParams) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &async.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(p)
}

func (ex *execution) completeValue(fi *fieldInfo, ref *schema.TypeRef, raw any, path ast.Path) (value.Value, error) {
	if ref.IsNonNull() {
		v, err := ex.completeValue(fi, ref.OfType, raw, path)
		if err != nil {
			return value.Value{}, err
		}
		if v.IsNullish() {
			return value.Value{}, locatedError(
				fmt.Errorf("Cannot return null for non-nullable field %s.", fi.coordinate()), fi.nodes, path)
		}
		return v, nil
	}

	if isNullish(raw) {
		return value.NewNull(), nil
	}
	if ref.IsList() {
		return ex.completeList(fi, ref, raw, path)
	}

	t := ex.schema.Named(ref)
	if t == nil {
		return value.Value{}, locatedError(fmt.Errorf("Unknown type %q.", ref.GetNamedType()), fi.nodes, path)
	}
	switch t.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		leaf := derefLeaf(raw)
		if leaf == nil {
			return value.NewNull(), nil
		}
		v, err := t.SerializeLeaf(leaf)
		if err != nil {
			return value.Value{}, locatedError(err, fi.nodes, path)
		}
		return v, nil
	case schema.TypeKindObject:
		return ex.completeObject(fi, t, raw, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return ex.completeAbstract(fi, t, raw, path)
	}
	return value.Value{}, locatedError(fmt.Errorf("Cannot complete value of unexpected type %q.", t.Name), fi.nodes, path)
}

func (ex *execution) completeList(fi *fieldInfo, ref *schema.TypeRef, raw any, path ast.Path) (value.Value, error) {
	items, ok := listItems(raw)
	if !ok {
		return value.Value{}, locatedError(
			fmt.Errorf("Expected Iterable, but did not find one for field %q.", fi.coordinate()), fi.nodes, path)
	}
	itemType := ref.Unwrap()
	out := make([]value.Value, len(items))
	// item completes one element; a non-null element failure nulls the list.
	item := func(i int) error {
		itemPath := appendPath(path, ast.PathIndex(i))
		v, err := ex.completeValue(fi, itemType, items[i], itemPath)
		if err == nil {
			out[i] = v
			return nil
		}
		if itemType.IsNonNull() {
			return err
		}
		ex.record(err)
		out[i] = value.NewNull()
		return nil
	}

	if ex.strategy == Serial {
		for i := range items {
			if err := item(i); err != nil {
				return value.Value{}, err
			}
		}
		return value.NewList(out...), nil
	}

	errs := make([]error, len(items))
	var g errgroup.Group
	if ex.limit > 0 {
		g.SetLimit(ex.limit)
	}
	for i := range items {
		g.Go(func() error {
			errs[i] = item(i)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.NewList(out...), nil
}

func (ex *execution) completeObject(fi *fieldInfo, t *schema.Type, raw any, path ast.Path) (value.Value, error) {
	fields := ex.collectSubfields(t, fi.nodes)
	m, err := ex.executeFields(t, raw, path, fields, ex.strategy == Serial)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewObject(m), nil
}

func (ex *execution) completeAbstract(fi *fieldInfo, abstract *schema.Type, raw any, path ast.Path) (value.Value, error) {
	name := ex.schema.ResolveAbstract(schema.ResolveTypeParams{
		Context:  ex.ctx,
		Value:    raw,
		Request:  ex.request,
		Abstract: abstract,
	})
	if name == "" {
		return value.Value{}, locatedError(fmt.Errorf(
			"Abstract type %q must resolve to an Object type at runtime for field %q.", abstract.Name, fi.coordinate()), fi.nodes, path)
	}
	concrete := ex.schema.Type(name)
	if concrete == nil || concrete.Kind != schema.TypeKindObject {
		return value.Value{}, locatedError(fmt.Errorf(
			"Abstract type %q was resolved to a type %q that does not exist inside the schema.", abstract.Name, name), fi.nodes, path)
	}
	if !ex.schema.IsPossibleType(abstract, concrete.Name) {
		return value.Value{}, locatedError(fmt.Errorf(
			"Runtime Object type %q is not a possible type for %q.", concrete.Name, abstract.Name), fi.nodes, path)
	}
	return ex.completeObject(fi, concrete, raw, path)
}

// locatedError attaches the field's locations and response path to err. A
// *gqlerror.Error from a resolver keeps its message and extensions.
func locatedError(err error, nodes []*ast.Field, path ast.Path) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		cp := *gqlErr
		if cp.Path == nil {
			cp.Path = path
		}
		if cp.Locations == nil && len(nodes) > 0 {
			cp.Locations = language.LocationOf(nodes[0].Position)
		}
		return &cp
	}
	out := &gqlerror.Error{Message: err.Error(), Path: path}
	if len(nodes) > 0 {
		out.Locations = language.LocationOf(nodes[0].Position)
	}
	return out
}

func asGraphQLError(err error) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}
	return &gqlerror.Error{Message: err.Error()}
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

// listItems flattens the list shapes a resolver may return.
func listItems(raw any) ([]any, bool) {
	switch x := raw.(type) {
	case []any:
		return x, true
	case value.Value:
		if x.Kind() != value.List {
			return nil, false
		}
		items := make([]any, len(x.Items()))
		for i, item := range x.Items() {
			items[i] = item
		}
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// derefLeaf follows pointers to the value a leaf serializer understands.
// raw is known to be non-nil.
func derefLeaf(raw any) any {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Pointer {
		return raw
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// isNullish reports nil interfaces, typed nils and null or undefined values.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	if x, ok := v.(value.Value); ok {
		return x.IsNullish()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
