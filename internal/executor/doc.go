// Package executor runs a validated GraphQL operation against a schema and
// assembles the ordered response with partial-failure semantics.
//
// # Preparation
//
// Before any resolver runs, the executor:
//  1. Chooses the operation, by name or by uniqueness when no name is given.
//     Failure here is reported without data.
//  2. Coerces the caller's variables against the operation's variable
//     definitions (see validator.CoerceVariableValues). Errors stop execution
//     and are reported without data.
//  3. Picks the root object type from the operation kind and collects the
//     root selection set.
//
// # Field Collection
//
// Selections sharing a response key at one level, including those reached
// through fragment spreads and inline fragments, are merged into one field
// whose sub-selection is the union of all contributing sub-selections.
// @skip and @include are evaluated during collection. A fragment applies when
// its type condition names the object type itself or an interface or union
// the object belongs to. Field order is first-seen order.
//
// # Resolution
//
// Each field's arguments are coerced against their definitions (defaults for
// omitted arguments, variables substituted). The field's resolver, or
// schema.DefaultResolve when none is bound, is then called with a
// schema.ResolveParams. A resolver may return its value directly, or an
// *async.Task that settles later; both are normalized into a Task and
// awaited, so completion is written once. Returned errors and recovered
// panics become field errors located at the field's response path.
//
// # Value Completion
//
// Completion follows the field's declared type:
//   - Non-Null: complete the inner type; a null result is an error
//     "Cannot return null for non-nullable field T.f." at this path.
//   - List: complete every element with an index path. A failing element of
//     a non-null item type nulls the list; otherwise only that element is
//     null.
//   - Scalar and Enum: apply the type's output coercion.
//   - Object: execute the merged sub-selection with the value as source.
//   - Interface and Union: ask the type's ResolveType for a concrete object
//     type name. An empty or impossible name is a field error.
//
// # Null Propagation
//
// A failing non-null field returns its error to the parent instead of
// recording it. The error is recorded exactly once, at the nearest nullable
// ancestor field or list element, which becomes null. Reaching the root
// makes data null. Sibling values inside the nulled subtree are discarded;
// their resolvers are not interrupted.
//
// # Strategies
//
// Parallel starts all siblings of a selection set, and all elements of a
// list, concurrently and joins them; WithMaxConcurrency caps the fan-out of
// each selection set or list. Serial starts each sibling after the previous
// one finished. Mutation and subscription root fields are always serial.
// Response order never depends on completion order.
package executor
