// annotations.go defines the annotation types, argument constants and parser for the Oxy WGSL
// pre-processor. Annotations are single-line WGSL comments prefixed with @oxy: that inject
// registered struct sources and generate @group/@binding declarations for compute buffers.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an Oxy annotation inside a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct at the annotation site.
	// It is consumed entirely during pre-processing and produces no declaration.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include multiply_params
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration and records
	// an Annotation in the PreProcessor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_read_write data array<u32>
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key (e.g. "multiply_params")
	//   - group:   [0] = address space, [1] = var name, [2] = type key, optionally array<> wrapped
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source.
	Line int

	// Group is the @group index for group annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed string used as an annotation argument.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// Registered WGSL struct types, each backed by an embedded .wgsl asset in the common package.

const (
	// AnnotationArgMultiplyParams identifies the MultiplyParams uniform struct.
	// Source: common/assets/multiply_params.wgsl
	AnnotationArgMultiplyParams AnnotationArg = "multiply_params"
)

// ── Primitive type arguments ───────────────────────────────────────────────────
// Scalars accepted as @oxy:group types, mostly as array<> elements. They need no include.

const (
	// AnnotationArgU32 is the WGSL u32 scalar.
	AnnotationArgU32 AnnotationArg = "u32"

	// AnnotationArgI32 is the WGSL i32 scalar.
	AnnotationArgI32 AnnotationArg = "i32"

	// AnnotationArgF32 is the WGSL f32 scalar.
	AnnotationArgF32 AnnotationArg = "f32"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite maps to var<storage, read_write> in WGSL.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// validStructTypes lists the arguments accepted by @oxy:include. Each has a registry entry.
var validStructTypes = []AnnotationArg{
	AnnotationArgMultiplyParams,
}

// validPrimitiveTypes lists the scalar arguments accepted as @oxy:group types.
var validPrimitiveTypes = []AnnotationArg{
	AnnotationArgU32,
	AnnotationArgI32,
	AnnotationArgF32,
}

// validAddressSpaces lists the address space arguments accepted by @oxy:group.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// isValidBindingType reports whether typeArg is a registered struct or primitive.
func isValidBindingType(typeArg AnnotationArg) bool {
	return slices.Contains(validStructTypes, typeArg) || slices.Contains(validPrimitiveTypes, typeArg)
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Lines without the prefix return nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five arguments (group, binding, address space, var name, type)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation: %w", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation: %w", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, isArray := strings.CutPrefix(typeArg, "array<"); isArray {
			inner = strings.TrimSuffix(inner, ">")
			if !isValidBindingType(AnnotationArg(inner)) {
				return nil, fmt.Errorf("line %d: unknown array element type %q in @oxy group annotation", lineNum, inner)
			}
		} else if !isValidBindingType(AnnotationArg(typeArg)) {
			return nil, fmt.Errorf("line %d: unknown type %q in @oxy group annotation", lineNum, typeArg)
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(typeArg)},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
