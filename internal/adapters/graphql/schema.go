// Package graphql is a small GraphQL-over-HTTP executor: root fields map to
// resolver functions, selected sub-fields are projected from the resolver
// result. Fragments, directives and subscriptions are not supported.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/tracing"
)

const introspectionOperation = "IntrospectionQuery"

type Resolver func(ctx context.Context, args Args) (any, error)

type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type Error struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

type Result struct {
	Data   any     `json:"data"`
	Errors []Error `json:"errors,omitempty"`
}

type Schema struct {
	queries   map[string]Resolver
	mutations map[string]Resolver
	tracer    trace.Tracer
}

func NewSchema(tp trace.TracerProvider) *Schema {
	return &Schema{
		queries:   map[string]Resolver{},
		mutations: map[string]Resolver{},
		tracer:    tp.Tracer(tracing.InstrumentationName),
	}
}

func (s *Schema) Query(name string, r Resolver) *Schema {
	s.queries[name] = r
	return s
}

func (s *Schema) Mutation(name string, r Resolver) *Schema {
	s.mutations[name] = r
	return s
}

// Execute runs one operation. Resolver errors become entries in Errors with
// the field path, and that field is null in Data.
func (s *Schema) Execute(ctx context.Context, req Request) Result {
	opType, opName := "unknown", req.OperationName
	res := s.execute(ctx, req, &opType, &opName)
	logCompletion(ctx, opType, opName, res)
	return res
}

func (s *Schema) execute(ctx context.Context, req Request, opType, opName *string) Result {
	doc, perr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if perr != nil {
		return Result{Errors: []Error{{Message: perr.Error()}}}
	}

	op, err := pickOperation(doc, req.OperationName)
	if err != nil {
		return Result{Errors: []Error{{Message: err.Error()}}}
	}
	*opType = string(op.Operation)
	if *opName == "" {
		*opName = op.Name
	}

	var resolvers map[string]Resolver
	switch op.Operation {
	case ast.Query:
		resolvers = s.queries
	case ast.Mutation:
		resolvers = s.mutations
	default:
		return Result{Errors: []Error{{Message: fmt.Sprintf("%s operations are not supported", op.Operation)}}}
	}

	vars, err := variables(op, req.Variables)
	if err != nil {
		return Result{Errors: []Error{{Message: err.Error()}}}
	}

	spanName := "graphql." + *opType
	if *opName != "" {
		spanName += " " + *opName
	}
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(tracing.OperationName.String(*opName)))
	defer span.End()

	var out Result
	data := Object{}
	for _, sel := range op.SelectionSet {
		f, ok := sel.(*ast.Field)
		if !ok {
			out.Errors = append(out.Errors, Error{Message: "fragments are not supported"})
			continue
		}
		key := responseKey(f)
		value, ferr := s.resolveField(ctx, resolvers, op.Operation, f, vars)
		if ferr != nil {
			out.Errors = append(out.Errors, Error{Message: ferr.Error(), Path: []any{key}})
			data = append(data, field{key: key, value: nil})
			continue
		}
		data = append(data, field{key: key, value: value})
	}
	out.Data = data
	if len(out.Errors) > 0 {
		span.SetStatus(codes.Error, out.Errors[0].Message)
	}
	return out
}

func (s *Schema) resolveField(ctx context.Context, resolvers map[string]Resolver, opType ast.Operation, f *ast.Field, vars map[string]any) (any, error) {
	if f.Name == "__typename" {
		if opType == ast.Mutation {
			return "Mutation", nil
		}
		return "Query", nil
	}
	resolve, ok := resolvers[f.Name]
	if !ok {
		typ := "Query"
		if opType == ast.Mutation {
			typ = "Mutation"
		}
		return nil, fmt.Errorf("cannot query field %q on type %q", f.Name, typ)
	}

	args := make(Args, len(f.Arguments))
	for _, a := range f.Arguments {
		v, err := a.Value.Value(vars)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", a.Name, err)
		}
		args[a.Name] = v
	}

	value, err := resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	return project(value, f.SelectionSet)
}

func pickOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if len(doc.Fragments) > 0 {
		return nil, fmt.Errorf("fragments are not supported")
	}
	if name != "" {
		op := doc.Operations.ForName(name)
		if op == nil {
			return nil, fmt.Errorf("unknown operation %q", name)
		}
		return op, nil
	}
	switch len(doc.Operations) {
	case 0:
		return nil, fmt.Errorf("no operation in document")
	case 1:
		return doc.Operations[0], nil
	}
	return nil, fmt.Errorf("operationName is required when the document has several operations")
}

func variables(op *ast.OperationDefinition, given map[string]any) (map[string]any, error) {
	vars := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		v, ok := given[def.Variable]
		if !ok && def.DefaultValue != nil {
			dv, err := def.DefaultValue.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("variable $%s: %w", def.Variable, err)
			}
			v, ok = dv, true
		}
		if (!ok || v == nil) && def.Type != nil && def.Type.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s is required", def.Variable, def.Type.String())
		}
		vars[def.Variable] = v
	}
	return vars, nil
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// project keeps only the selected fields of value. Values are normalised
// through their JSON form first, so resolvers can return domain structs.
func project(value any, set ast.SelectionSet) (any, error) {
	if len(set) == 0 || value == nil {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return selectFields(generic, set)
}

func selectFields(v any, set ast.SelectionSet) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			p, err := selectFields(item, set)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case map[string]any:
		obj := make(Object, 0, len(set))
		for _, sel := range set {
			f, ok := sel.(*ast.Field)
			if !ok {
				return nil, fmt.Errorf("fragments are not supported")
			}
			fv := t[f.Name]
			if len(f.SelectionSet) > 0 {
				p, err := selectFields(fv, f.SelectionSet)
				if err != nil {
					return nil, err
				}
				fv = p
			}
			obj = append(obj, field{key: responseKey(f), value: fv})
		}
		return obj, nil
	}
	return nil, fmt.Errorf("field selection on scalar value")
}

func logCompletion(ctx context.Context, opType, opName string, res Result) {
	level := logrus.InfoLevel
	switch {
	case opName == introspectionOperation:
		level = logrus.DebugLevel
	case len(res.Errors) > 0:
		level = logrus.WarnLevel
	}
	logging.LogCtx(ctx, level, "GraphQL operation completed", logrus.Fields{
		"operation_type": opType,
		"operation_name": opName,
		"success":        len(res.Errors) == 0,
		"error_count":    len(res.Errors),
	})
}
