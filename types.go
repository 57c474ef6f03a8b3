/*
 * evmcodec - Decoding and encoding of EVM state and calldata
 *
 * Copyright Dapper Labs, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package evmcodec

import (
	"fmt"
	"strings"
)

// Type is the closed set of Solidity types that can be decoded.
//
// Elementary types are plain values (e.g. UintType),
// all other types are pointers (e.g. *ArrayType).
type Type interface {
	isType()
	ID() string
	TypeClass() TypeClass
	Equal(other Type) bool
}

//go:generate go run golang.org/x/tools/cmd/stringer -type=TypeClass

type TypeClass uint8

const (
	TypeClassUnknown TypeClass = iota
	TypeClassUint
	TypeClassInt
	TypeClassBool
	TypeClassBytes
	TypeClassAddress
	TypeClassFixed
	TypeClassUfixed
	TypeClassString
	TypeClassArray
	TypeClassMapping
	TypeClassFunction
	TypeClassStruct
	TypeClassEnum
	TypeClassUserDefinedValueType
	TypeClassContract
	TypeClassTuple
	TypeClassMagic
)

// DataLocation is the location a reference type lives in,
// as declared in the source.
type DataLocation uint8

const (
	DataLocationUnspecified DataLocation = iota
	DataLocationMemory
	DataLocationStorage
	DataLocationCalldata
)

func (l DataLocation) String() string {
	switch l {
	case DataLocationMemory:
		return "memory"
	case DataLocationStorage:
		return "storage"
	case DataLocationCalldata:
		return "calldata"
	}
	return ""
}

func withLocation(id string, location DataLocation) string {
	if location == DataLocationUnspecified {
		return id
	}
	return id + " " + location.String()
}

// Scope tells whether a user-defined type is declared inside a contract or at file level.
type Scope uint8

const (
	ScopeGlobal Scope = iota
	ScopeLocal
)

// NameTypePair is a named member of a struct, tuple, or parameter list.
// Tuple members may be unnamed.
type NameTypePair struct {
	Name string
	Type Type
}

// UintType

type UintType struct {
	Bits uint
}

var _ Type = UintType{}

func (UintType) isType() {}

func (t UintType) ID() string {
	return fmt.Sprintf("uint%d", t.Bits)
}

func (UintType) TypeClass() TypeClass {
	return TypeClassUint
}

func (t UintType) Equal(other Type) bool {
	return t == other
}

// IntType

type IntType struct {
	Bits uint
}

var _ Type = IntType{}

func (IntType) isType() {}

func (t IntType) ID() string {
	return fmt.Sprintf("int%d", t.Bits)
}

func (IntType) TypeClass() TypeClass {
	return TypeClassInt
}

func (t IntType) Equal(other Type) bool {
	return t == other
}

// BoolType

type BoolType struct{}

var TheBoolType = BoolType{}

func (BoolType) isType() {}

func (BoolType) ID() string {
	return "bool"
}

func (BoolType) TypeClass() TypeClass {
	return TypeClassBool
}

func (t BoolType) Equal(other Type) bool {
	return t == other
}

// BytesType is either a static bytesN (1 <= N <= 32) or the dynamic bytes type.

type BytesType struct {
	Dynamic  bool
	Length   uint
	Location DataLocation
}

var _ Type = BytesType{}

func NewStaticBytesType(length uint) BytesType {
	return BytesType{Length: length}
}

func NewDynamicBytesType(location DataLocation) BytesType {
	return BytesType{Dynamic: true, Location: location}
}

func (BytesType) isType() {}

func (t BytesType) ID() string {
	if t.Dynamic {
		return withLocation("bytes", t.Location)
	}
	return fmt.Sprintf("bytes%d", t.Length)
}

func (BytesType) TypeClass() TypeClass {
	return TypeClassBytes
}

func (t BytesType) Equal(other Type) bool {
	return t == other
}

// AddressType

type AddressKind uint8

const (
	AddressKindGeneral AddressKind = iota
	AddressKindSpecific
)

type AddressType struct {
	Kind    AddressKind
	Payable bool
}

var _ Type = AddressType{}

func (AddressType) isType() {}

func (t AddressType) ID() string {
	if t.Payable {
		return "address payable"
	}
	return "address"
}

func (AddressType) TypeClass() TypeClass {
	return TypeClassAddress
}

func (t AddressType) Equal(other Type) bool {
	return t == other
}

// FixedType

type FixedType struct {
	Bits   uint
	Places uint
}

var _ Type = FixedType{}

func (FixedType) isType() {}

func (t FixedType) ID() string {
	return fmt.Sprintf("fixed%dx%d", t.Bits, t.Places)
}

func (FixedType) TypeClass() TypeClass {
	return TypeClassFixed
}

func (t FixedType) Equal(other Type) bool {
	return t == other
}

// UfixedType

type UfixedType struct {
	Bits   uint
	Places uint
}

var _ Type = UfixedType{}

func (UfixedType) isType() {}

func (t UfixedType) ID() string {
	return fmt.Sprintf("ufixed%dx%d", t.Bits, t.Places)
}

func (UfixedType) TypeClass() TypeClass {
	return TypeClassUfixed
}

func (t UfixedType) Equal(other Type) bool {
	return t == other
}

// StringType

type StringType struct {
	Location DataLocation
}

var _ Type = StringType{}

func (StringType) isType() {}

func (t StringType) ID() string {
	return withLocation("string", t.Location)
}

func (StringType) TypeClass() TypeClass {
	return TypeClassString
}

func (t StringType) Equal(other Type) bool {
	return t == other
}

// ArrayType

type ArrayType struct {
	Element  Type
	Dynamic  bool
	Length   uint64
	Location DataLocation
}

var _ Type = &ArrayType{}

func NewDynamicArrayType(element Type, location DataLocation) *ArrayType {
	return &ArrayType{
		Element:  element,
		Dynamic:  true,
		Location: location,
	}
}

func NewStaticArrayType(element Type, length uint64, location DataLocation) *ArrayType {
	return &ArrayType{
		Element:  element,
		Length:   length,
		Location: location,
	}
}

func (*ArrayType) isType() {}

func (t *ArrayType) ID() string {
	if t.Dynamic {
		return withLocation(t.Element.ID()+"[]", t.Location)
	}
	return withLocation(fmt.Sprintf("%s[%d]", t.Element.ID(), t.Length), t.Location)
}

func (*ArrayType) TypeClass() TypeClass {
	return TypeClassArray
}

func (t *ArrayType) Equal(other Type) bool {
	otherType, ok := other.(*ArrayType)
	if !ok {
		return false
	}

	return t.Dynamic == otherType.Dynamic &&
		t.Length == otherType.Length &&
		t.Location == otherType.Location &&
		t.Element.Equal(otherType.Element)
}

// MappingType

type MappingType struct {
	Key   Type
	Value Type
}

var _ Type = &MappingType{}

func NewMappingType(key Type, value Type) *MappingType {
	return &MappingType{
		Key:   key,
		Value: value,
	}
}

func (*MappingType) isType() {}

func (t *MappingType) ID() string {
	return fmt.Sprintf("mapping(%s => %s)", t.Key.ID(), t.Value.ID())
}

func (*MappingType) TypeClass() TypeClass {
	return TypeClassMapping
}

func (t *MappingType) Equal(other Type) bool {
	otherType, ok := other.(*MappingType)
	if !ok {
		return false
	}

	return t.Key.Equal(otherType.Key) &&
		t.Value.Equal(otherType.Value)
}

// FunctionType

type FunctionVisibility uint8

const (
	FunctionVisibilityInternal FunctionVisibility = iota
	FunctionVisibilityExternal
)

// FunctionKind distinguishes external function types with a known signature
// from the general ABI `function` type.
type FunctionKind uint8

const (
	FunctionKindSpecific FunctionKind = iota
	FunctionKindGeneral
)

type FunctionType struct {
	Visibility FunctionVisibility
	Kind       FunctionKind
	Mutability string
	Inputs     []Type
	Outputs    []Type
}

var _ Type = &FunctionType{}

// TheGeneralExternalFunctionType is the ABI `function` type.
var TheGeneralExternalFunctionType = &FunctionType{
	Visibility: FunctionVisibilityExternal,
	Kind:       FunctionKindGeneral,
}

func (*FunctionType) isType() {}

func typeIDs(types []Type) string {
	ids := make([]string, len(types))
	for i, typ := range types {
		ids[i] = typ.ID()
	}
	return strings.Join(ids, ",")
}

func (t *FunctionType) ID() string {
	if t.Kind == FunctionKindGeneral {
		return "function"
	}

	var builder strings.Builder
	builder.WriteString("function (")
	builder.WriteString(typeIDs(t.Inputs))
	builder.WriteString(")")
	if t.Visibility == FunctionVisibilityExternal {
		builder.WriteString(" external")
	} else {
		builder.WriteString(" internal")
	}
	if t.Mutability != "" && t.Mutability != "nonpayable" {
		builder.WriteByte(' ')
		builder.WriteString(t.Mutability)
	}
	if len(t.Outputs) > 0 {
		builder.WriteString(" returns (")
		builder.WriteString(typeIDs(t.Outputs))
		builder.WriteString(")")
	}
	return builder.String()
}

func (*FunctionType) TypeClass() TypeClass {
	return TypeClassFunction
}

func typesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i, typ := range a {
		if !typ.Equal(b[i]) {
			return false
		}
	}
	return true
}

func (t *FunctionType) Equal(other Type) bool {
	otherType, ok := other.(*FunctionType)
	if !ok {
		return false
	}

	return t.Visibility == otherType.Visibility &&
		t.Kind == otherType.Kind &&
		t.Mutability == otherType.Mutability &&
		typesEqual(t.Inputs, otherType.Inputs) &&
		typesEqual(t.Outputs, otherType.Outputs)
}

// StructType refers to a struct definition by its stable type ID.
// Members are resolved through TypeDefinitions.

type StructType struct {
	TypeID           string
	Name             string
	DefiningContract string
	Scope            Scope
	Location         DataLocation
}

var _ Type = &StructType{}

func (*StructType) isType() {}

func (t *StructType) ID() string {
	return t.TypeID
}

func (*StructType) TypeClass() TypeClass {
	return TypeClassStruct
}

func (t *StructType) Equal(other Type) bool {
	otherType, ok := other.(*StructType)
	if !ok {
		return false
	}

	return t.TypeID == otherType.TypeID &&
		t.Location == otherType.Location
}

// QualifiedName returns the name of the struct, qualified by its defining contract, if any.
func (t *StructType) QualifiedName() string {
	return qualifiedName(t.DefiningContract, t.Name)
}

func qualifiedName(definingContract string, name string) string {
	if definingContract == "" {
		return name
	}
	return definingContract + "." + name
}

// EnumType

type EnumType struct {
	TypeID           string
	Name             string
	DefiningContract string
	Scope            Scope
}

var _ Type = &EnumType{}

func (*EnumType) isType() {}

func (t *EnumType) ID() string {
	return t.TypeID
}

func (*EnumType) TypeClass() TypeClass {
	return TypeClassEnum
}

func (t *EnumType) Equal(other Type) bool {
	otherType, ok := other.(*EnumType)
	if !ok {
		return false
	}

	return t.TypeID == otherType.TypeID
}

func (t *EnumType) QualifiedName() string {
	return qualifiedName(t.DefiningContract, t.Name)
}

// UserDefinedValueType is a type declared as `type T is U;`.

type UserDefinedValueType struct {
	TypeID           string
	Name             string
	DefiningContract string
	Scope            Scope
}

var _ Type = &UserDefinedValueType{}

func (*UserDefinedValueType) isType() {}

func (t *UserDefinedValueType) ID() string {
	return t.TypeID
}

func (*UserDefinedValueType) TypeClass() TypeClass {
	return TypeClassUserDefinedValueType
}

func (t *UserDefinedValueType) Equal(other Type) bool {
	otherType, ok := other.(*UserDefinedValueType)
	if !ok {
		return false
	}

	return t.TypeID == otherType.TypeID
}

func (t *UserDefinedValueType) QualifiedName() string {
	return qualifiedName(t.DefiningContract, t.Name)
}

// ContractType

type ContractTypeKind uint8

const (
	// ContractTypeKindNative is a contract type with compilation information available.
	ContractTypeKindNative ContractTypeKind = iota
	// ContractTypeKindForeign is a contract type only known by name.
	ContractTypeKindForeign
)

type ContractType struct {
	Kind         ContractTypeKind
	TypeID       string
	Name         string
	ContractKind string
	Payable      bool
}

var _ Type = &ContractType{}

func (*ContractType) isType() {}

func (t *ContractType) ID() string {
	if t.Kind == ContractTypeKindForeign {
		return "contract " + t.Name
	}
	return t.TypeID
}

func (*ContractType) TypeClass() TypeClass {
	return TypeClassContract
}

func (t *ContractType) Equal(other Type) bool {
	otherType, ok := other.(*ContractType)
	if !ok {
		return false
	}

	return t.Kind == otherType.Kind &&
		t.TypeID == otherType.TypeID &&
		t.Name == otherType.Name
}

// TupleType

type TupleType struct {
	Members []NameTypePair
}

var _ Type = &TupleType{}

func NewTupleType(members []NameTypePair) *TupleType {
	return &TupleType{Members: members}
}

func (*TupleType) isType() {}

func (t *TupleType) ID() string {
	ids := make([]string, len(t.Members))
	for i, member := range t.Members {
		ids[i] = member.Type.ID()
	}
	return "tuple(" + strings.Join(ids, ",") + ")"
}

func (*TupleType) TypeClass() TypeClass {
	return TypeClassTuple
}

func (t *TupleType) Equal(other Type) bool {
	otherType, ok := other.(*TupleType)
	if !ok {
		return false
	}

	if len(t.Members) != len(otherType.Members) {
		return false
	}
	for i, member := range t.Members {
		otherMember := otherType.Members[i]
		if member.Name != otherMember.Name ||
			!member.Type.Equal(otherMember.Type) {

			return false
		}
	}
	return true
}

// MagicType is one of the built-in environment namespaces.

type MagicVariable uint8

const (
	MagicVariableMessage MagicVariable = iota
	MagicVariableBlock
	MagicVariableTransaction
)

func (v MagicVariable) String() string {
	switch v {
	case MagicVariableMessage:
		return "msg"
	case MagicVariableBlock:
		return "block"
	case MagicVariableTransaction:
		return "tx"
	}
	return ""
}

type MagicType struct {
	Variable MagicVariable
}

var _ Type = &MagicType{}

func (*MagicType) isType() {}

func (t *MagicType) ID() string {
	return "magic " + t.Variable.String()
}

func (*MagicType) TypeClass() TypeClass {
	return TypeClassMagic
}

func (t *MagicType) Equal(other Type) bool {
	otherType, ok := other.(*MagicType)
	if !ok {
		return false
	}
	return t.Variable == otherType.Variable
}

// IsElementary returns true for the types that may be used as mapping keys
// and that are decoded from a single word.
func IsElementary(t Type) bool {
	switch t.TypeClass() {
	case TypeClassUint,
		TypeClassInt,
		TypeClassBool,
		TypeClassBytes,
		TypeClassAddress,
		TypeClassFixed,
		TypeClassUfixed,
		TypeClassString,
		TypeClassEnum,
		TypeClassUserDefinedValueType,
		TypeClassContract:

		return true
	}
	return false
}

// IsReference returns true for types which are stored by reference,
// i.e. whose variables on the stack hold a pointer.
func IsReference(t Type) bool {
	switch t := t.(type) {
	case BytesType:
		return t.Dynamic
	case StringType, *ArrayType, *StructType, *MappingType:
		return true
	}
	return false
}

// WithLocation returns a copy of the given reference type with the given data location.
// Other types are returned unchanged.
func WithLocation(t Type, location DataLocation) Type {
	switch t := t.(type) {
	case BytesType:
		if t.Dynamic {
			t.Location = location
		}
		return t
	case StringType:
		t.Location = location
		return t
	case *ArrayType:
		result := *t
		result.Location = location
		return &result
	case *StructType:
		result := *t
		result.Location = location
		return &result
	}
	return t
}

// LocationOf returns the data location of the given type, if any.
func LocationOf(t Type) DataLocation {
	switch t := t.(type) {
	case BytesType:
		return t.Location
	case StringType:
		return t.Location
	case *ArrayType:
		return t.Location
	case *StructType:
		return t.Location
	case *MappingType:
		return DataLocationStorage
	}
	return DataLocationUnspecified
}
