// Package schema declares the HCL surface of the rules language: the block
// and attribute schemas the loader decodes source files against.
//
// Decoding works on hcl.BodyContent rather than struct tags because the
// compiler needs every block's definition range and the source declaration
// order across block types, both of which are lost by tag-based decoding.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Block type names.
const (
	BlockScope    = "scope"
	BlockStruct   = "struct"
	BlockEnum     = "enum"
	BlockInput    = "input"
	BlockOutput   = "output"
	BlockInternal = "internal"
	BlockContext  = "context"
	BlockCall     = "call"
	BlockRule     = "rule"
	BlockAssert   = "assert"
	BlockField    = "field"
	BlockCase     = "case"
)

// Attribute names.
const (
	AttrType        = "type"
	AttrParam       = "param"
	AttrCondition   = "condition"
	AttrStates      = "states"
	AttrOutput      = "output"
	AttrScope       = "scope"
	AttrDefines     = "defines"
	AttrState       = "state"
	AttrWhen        = "when"
	AttrThen        = "then"
	AttrLabel       = "label"
	AttrExceptionTo = "exception_to"
	AttrThat        = "that"
)

// Root describes the top level of a source file.
var Root = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: BlockScope, LabelNames: []string{"name"}},
		{Type: BlockStruct, LabelNames: []string{"name"}},
		{Type: BlockEnum, LabelNames: []string{"name"}},
	},
}

// Scope describes the body of a scope block. Variable declarations, calls,
// rules and assertions may interleave freely; the loader preserves their
// source order.
var Scope = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: BlockInput, LabelNames: []string{"name"}},
		{Type: BlockOutput, LabelNames: []string{"name"}},
		{Type: BlockInternal, LabelNames: []string{"name"}},
		{Type: BlockContext, LabelNames: []string{"name"}},
		{Type: BlockCall, LabelNames: []string{"name"}},
		{Type: BlockRule, LabelNames: []string{"name"}},
		{Type: BlockAssert},
	},
}

// Var describes the body of a variable declaration block (input, output,
// internal or context).
var Var = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: AttrType},
		{Name: AttrParam},
		{Name: AttrCondition},
		{Name: AttrStates},
		{Name: AttrOutput},
	},
}

// Call describes the body of a subscope call block.
var Call = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: AttrScope, Required: true},
	},
}

// Rule describes the body of a rule block.
var Rule = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: AttrDefines, Required: true},
		{Name: AttrState},
		{Name: AttrWhen},
		{Name: AttrThen, Required: true},
		{Name: AttrParam},
		{Name: AttrLabel},
		{Name: AttrExceptionTo},
	},
}

// Assert describes the body of an assert block.
var Assert = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: AttrThat, Required: true},
	},
}

// Struct describes the body of a struct declaration.
var Struct = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: BlockField, LabelNames: []string{"name"}},
	},
}

// Field describes one struct field.
var Field = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: AttrType, Required: true},
	},
}

// Enum describes the body of an enum declaration.
var Enum = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: BlockCase, LabelNames: []string{"name"}},
	},
}

// Case describes one enum case; the type attribute is the optional payload.
var Case = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: AttrType},
	},
}
