// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Decode validates data against the definition at defPath in schema and
// decodes the unified value into a T. Errors carry the filename and the
// JSON path of the offending field.
func Decode[T any](schema, data []byte, defPath string, opts ...Option) (*T, error) {
	v, err := Validate(schema, data, defPath, opts...)
	if err != nil {
		return nil, err
	}

	o := resolveOptions(opts)
	var out T
	if err := v.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &out, nil
}

// DecodeMap is Decode into a generic map, used where the result is merged
// into a key-value store such as viper.
func DecodeMap(schema, data []byte, defPath string, opts ...Option) (map[string]any, error) {
	m, err := Decode[map[string]any](schema, data, defPath, opts...)
	if err != nil {
		return nil, err
	}
	return *m, nil
}

// Validate compiles data, unifies it with the schema definition and
// validates the result.
func Validate(schema, data []byte, defPath string, opts ...Option) (cue.Value, error) {
	o := resolveOptions(opts)

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()

	def, err := lookupDefinition(ctx, schema, defPath)
	if err != nil {
		return cue.Value{}, err
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), o.filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}
	return unified, nil
}

// DecodeValue validates v, a value taken from an earlier Validate result,
// against the definition at defPath and decodes it into a T. It lets a caller
// accept a document whose outer shape is loose and check each part on its
// own, so one bad entry does not reject its siblings.
func DecodeValue[T any](schema []byte, v cue.Value, defPath string, opts ...Option) (*T, error) {
	o := resolveOptions(opts)

	def, err := lookupDefinition(v.Context(), schema, defPath)
	if err != nil {
		return nil, err
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &out, nil
}

// lookupDefinition compiles schema in ctx and returns the definition at defPath.
func lookupDefinition(ctx *cue.Context, schema []byte, defPath string) (cue.Value, error) {
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	def := schemaValue.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", defPath, def.Err())
	}
	return def, nil
}

func resolveOptions(opts []Option) decodeOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.filename == "" {
		o.filename = "<input>"
	}
	return o
}
