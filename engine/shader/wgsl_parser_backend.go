package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap maps the WGSL scalar, vector and atomic types usable in compute
// buffers to their byte size and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two, which every WGSL alignment is.
//
// Parameters:
//   - alignment: the required alignment
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// arrayElement splits an array type into its element type and optional element count.
// For "array<u32>" it returns ("u32", "", true); for "array<DataPair, 4>" ("DataPair", "4", true).
func arrayElement(typeName string) (elem string, count string, ok bool) {
	inner, found := strings.CutPrefix(typeName, "array<")
	if !found || !strings.HasSuffix(inner, ">") {
		return "", "", false
	}
	inner = strings.TrimSuffix(inner, ">")
	elem, count, _ = strings.Cut(inner, ",")
	return strings.TrimSpace(elem), strings.TrimSpace(count), true
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives
// and previously computed struct layouts. A runtime-sized array resolves to the stride of one
// element, the smallest binding that can hold any data.
//
// Parameters:
//   - typeName: the WGSL type name to resolve, e.g. "u32", "MultiplyParams", "array<u32>"
//   - knownTypes: a map of already-resolved struct names to their layouts
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: true if the type could be resolved
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	elemType, countStr, ok := arrayElement(typeName)
	if !ok {
		return wgslTypeLayout{}, false
	}
	elemLayout, ok := resolveTypeLayout(elemType, knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elemLayout.align, elemLayout.size)
	if countStr == "" {
		return wgslTypeLayout{stride, elemLayout.align}, true
	}
	count, err := strconv.ParseUint(countStr, 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elemLayout.align}, true
}

// computeStructLayout computes the byte size and alignment of a single WGSL struct: each field
// is placed at the next aligned offset and the total size is rounded up to the largest field
// alignment. A trailing runtime-sized array contributes only its offset, or one element when it
// is the only field. @builtin fields are skipped.
//
// Parameters:
//   - ps: the parsed struct whose layout to compute
//   - knownTypes: a map of already-resolved type names to their layouts
//
// Returns:
//   - wgslTypeLayout: the computed layout
//   - bool: true if all fields could be resolved
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)

	for i, field := range ps.fields {
		if field.isBuiltin {
			continue
		}

		if elemType, countStr, isArray := arrayElement(field.typeName); isArray && countStr == "" {
			if i != len(ps.fields)-1 {
				return wgslTypeLayout{}, false
			}
			elemLayout, ok := resolveTypeLayout(elemType, knownTypes)
			if !ok {
				return wgslTypeLayout{}, false
			}
			maxAlign = max(maxAlign, elemLayout.align)
			offset = roundUpAlign(maxAlign, offset)
			if offset == 0 {
				return wgslTypeLayout{roundUpAlign(elemLayout.align, elemLayout.size), elemLayout.align}, true
			}
			return wgslTypeLayout{offset, maxAlign}, true
		}

		fieldLayout, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fieldLayout.align, offset) + fieldLayout.size
		maxAlign = max(maxAlign, fieldLayout.align)
	}

	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes computes the layout of every parsed struct. Structs that embed other
// structs are resolved over repeated passes until no more progress is made.
//
// Parameters:
//   - structs: all parsed struct blocks from the WGSL source
//
// Returns:
//   - map[string]wgslTypeLayout: a map from struct name to computed layout
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)

	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}

	return resolved
}

// classifyResource creates a wgpu.BindGroupLayoutEntry from a parsed WGSL resource declaration.
// Declarations with an address space are buffers. Of the handle types only storage textures
// are classified; anything else comes back with no binding type set and fails layout creation.
//
// Parameters:
//   - binding: the binding index from @binding(N)
//   - visibility: the shader stage visibility flag
//   - addressSpace: the address space qualifier (e.g. "uniform", "storage, read_write"), empty for handle types
//   - typeName: the WGSL type string (e.g. "MultiplyParams", "texture_storage_2d<rgba8unorm, write>")
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: a populated layout entry for the resource
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case addressSpace == "":
		base, params := splitTypeParams(typeName)
		dim, ok := storageTextureDims[base]
		if !ok {
			break
		}
		format, access, _ := strings.Cut(params, ",")
		entry.StorageTexture.ViewDimension = dim
		entry.StorageTexture.Format = storageTexelFormats[strings.TrimSpace(format)]
		entry.StorageTexture.Access = storageTextureAccess[strings.TrimSpace(access)]
	}

	return entry
}

// splitTypeParams splits a WGSL parameterized type into its base name and parameter string.
// For "array<u32, 4>" returns ("array", "u32, 4"); unparameterized types return an empty
// parameter string.
//
// Parameters:
//   - typeName: the WGSL type string to split
//
// Returns:
//   - base: the type name before the first angle bracket
//   - params: the content between angle brackets, or empty if none
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

// stripComments removes both line (//) and nested block (/* */) comments from WGSL source.
//
// Parameters:
//   - source: raw WGSL source string
//
// Returns:
//   - string: source with all comments removed
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes // comments so they do not interfere with struct and field parsing.
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes /* ... */ comments, which WGSL allows to nest.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits a struct body at commas that are not nested inside angle
// brackets, so array<DataPair, 4> stays one field.
//
// Parameters:
//   - s: the string to split
//
// Returns:
//   - []string: substrings between top-level commas
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
