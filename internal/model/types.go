package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Type describes the declared type of a variable, struct field or enum
// payload. Declared types are carried through to the lowered signature;
// they are not checked (there is no type-checker in this compiler).
type Type interface {
	typeNode()
	String() string
}

// PrimType is a primitive type backed directly by a cty type
// (number, string or bool).
type PrimType struct {
	Cty cty.Type
}

// ListType is a homogeneous collection type.
type ListType struct {
	Elem Type
}

// StructType refers to a declared struct by name.
type StructType struct {
	Name string
}

// EnumType refers to a declared enum by name.
type EnumType struct {
	Name string
}

// FuncType is the type of a parameterized (function) definition: every rule
// for such a variable takes one argument of the Param type.
type FuncType struct {
	Param  Type
	Result Type
}

func (PrimType) typeNode()   {}
func (ListType) typeNode()   {}
func (StructType) typeNode() {}
func (EnumType) typeNode()   {}
func (FuncType) typeNode()   {}

func (t PrimType) String() string {
	return t.Cty.FriendlyName()
}

func (t ListType) String() string {
	return fmt.Sprintf("list(%s)", t.Elem)
}

func (t StructType) String() string { return t.Name }

func (t EnumType) String() string { return t.Name }

func (t FuncType) String() string {
	return fmt.Sprintf("%s -> %s", t.Param, t.Result)
}

// Bool is the implied type of condition variables.
var Bool Type = PrimType{Cty: cty.Bool}

// Number is the default type of unannotated declarations.
var Number Type = PrimType{Cty: cty.Number}

// IsFunc reports whether t is a function type.
func IsFunc(t Type) bool {
	_, ok := t.(FuncType)
	return ok
}
