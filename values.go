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
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onflow/evmcodec/format"
)

// Value is the result of decoding a Type.
// Each value is tagged with the type it was decoded as.
// A value that could not be decoded is an ErrorValue.
type Value interface {
	isValue()
	Type() Type
	fmt.Stringer
}

// NameValuePair is a member of a struct, tuple, or magic value.
type NameValuePair struct {
	Name  string
	Value Value
}

func formatMembers(members []NameValuePair) []format.Member {
	result := make([]format.Member, len(members))
	for i, member := range members {
		result[i] = format.Member{
			Name:  member.Name,
			Value: member.Value.String(),
		}
	}
	return result
}

// UintValue

type UintValue struct {
	UintType UintType
	Value    *big.Int
}

var _ Value = UintValue{}

func NewUintValue(bits uint, value *big.Int) UintValue {
	return UintValue{
		UintType: UintType{Bits: bits},
		Value:    value,
	}
}

func (UintValue) isValue() {}

func (v UintValue) Type() Type {
	return v.UintType
}

func (v UintValue) String() string {
	return v.Value.String()
}

// IntValue

type IntValue struct {
	IntType IntType
	Value   *big.Int
}

var _ Value = IntValue{}

func NewIntValue(bits uint, value *big.Int) IntValue {
	return IntValue{
		IntType: IntType{Bits: bits},
		Value:   value,
	}
}

func (IntValue) isValue() {}

func (v IntValue) Type() Type {
	return v.IntType
}

func (v IntValue) String() string {
	return v.Value.String()
}

// BoolValue

type BoolValue bool

var _ Value = BoolValue(false)

func (BoolValue) isValue() {}

func (BoolValue) Type() Type {
	return TheBoolType
}

func (v BoolValue) String() string {
	return format.Bool(bool(v))
}

// BytesValue holds both static and dynamic bytes.

type BytesValue struct {
	BytesType BytesType
	Value     []byte
}

var _ Value = BytesValue{}

func (BytesValue) isValue() {}

func (v BytesValue) Type() Type {
	return v.BytesType
}

func (v BytesValue) String() string {
	return format.Bytes(v.Value)
}

// AddressValue

type AddressValue struct {
	AddressType AddressType
	Value       common.Address
}

var _ Value = AddressValue{}

func (AddressValue) isValue() {}

func (v AddressValue) Type() Type {
	return v.AddressType
}

func (v AddressValue) String() string {
	return v.Value.Hex()
}

// FixedValue holds the raw, unscaled integer of a signed fixed point number.

type FixedValue struct {
	FixedType FixedType
	Raw       *big.Int
}

var _ Value = FixedValue{}

func (FixedValue) isValue() {}

func (v FixedValue) Type() Type {
	return v.FixedType
}

func (v FixedValue) String() string {
	return format.Fixed(v.Raw, v.FixedType.Places)
}

// Rat returns the value of the fixed point number.
func (v FixedValue) Rat() *big.Rat {
	return scaledRat(v.Raw, v.FixedType.Places)
}

func scaledRat(raw *big.Int, places uint) *big.Rat {
	denominator := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	return new(big.Rat).SetFrac(raw, denominator)
}

// UfixedValue

type UfixedValue struct {
	UfixedType UfixedType
	Raw        *big.Int
}

var _ Value = UfixedValue{}

func (UfixedValue) isValue() {}

func (v UfixedValue) Type() Type {
	return v.UfixedType
}

func (v UfixedValue) String() string {
	return format.Fixed(v.Raw, v.UfixedType.Places)
}

func (v UfixedValue) Rat() *big.Rat {
	return scaledRat(v.Raw, v.UfixedType.Places)
}

// StringValue

type StringValueKind uint8

const (
	StringValueKindValid StringValueKind = iota
	// StringValueKindMalformed is a string that is not valid UTF-8.
	// Only the raw bytes are available.
	StringValueKindMalformed
)

type StringValue struct {
	StringType StringType
	Kind       StringValueKind
	Value      string
	Raw        []byte
}

var _ Value = StringValue{}

// NewStringValue returns a valid or malformed string value for the given bytes.
func NewStringValue(stringType StringType, raw []byte) StringValue {
	if !utf8.Valid(raw) {
		return StringValue{
			StringType: stringType,
			Kind:       StringValueKindMalformed,
			Raw:        raw,
		}
	}
	return StringValue{
		StringType: stringType,
		Kind:       StringValueKindValid,
		Value:      string(raw),
		Raw:        raw,
	}
}

func (StringValue) isValue() {}

func (v StringValue) Type() Type {
	return v.StringType
}

func (v StringValue) String() string {
	if v.Kind == StringValueKindMalformed {
		return "malformed " + format.Bytes(v.Raw)
	}
	return format.String(v.Value)
}

// Bytes returns the bytes of the string: UTF-8 for valid strings, the raw bytes otherwise.
func (v StringValue) Bytes() []byte {
	if v.Kind == StringValueKindMalformed || v.Value == "" {
		return v.Raw
	}
	return []byte(v.Value)
}

// ArrayValue

type ArrayValue struct {
	ArrayType *ArrayType
	Elements  []Value
}

var _ Value = ArrayValue{}

func (ArrayValue) isValue() {}

func (v ArrayValue) Type() Type {
	return v.ArrayType
}

func (v ArrayValue) String() string {
	elements := make([]string, len(v.Elements))
	for i, element := range v.Elements {
		elements[i] = element.String()
	}
	return format.Array(elements)
}

// MappingValue holds the known entries of a mapping.
// Entries are only known for keys that were observed; there is no way to enumerate
// the keys of a mapping in storage.

type MappingEntry struct {
	Key   Value
	Value Value
}

type MappingValue struct {
	MappingType *MappingType
	Entries     []MappingEntry
}

var _ Value = MappingValue{}

func (MappingValue) isValue() {}

func (v MappingValue) Type() Type {
	return v.MappingType
}

func (v MappingValue) String() string {
	entries := make([]format.Entry, len(v.Entries))
	for i, entry := range v.Entries {
		entries[i] = format.Entry{
			Key:   entry.Key.String(),
			Value: entry.Value.String(),
		}
	}
	return format.Mapping(entries)
}

// FunctionExternalValue

type FunctionExternalValue struct {
	FunctionType *FunctionType
	Address      common.Address
	Selector     [4]byte
	// Class is the contract type found at the address, if identified.
	Class *ContractType
}

var _ Value = FunctionExternalValue{}

func (FunctionExternalValue) isValue() {}

func (v FunctionExternalValue) Type() Type {
	return v.FunctionType
}

func (v FunctionExternalValue) String() string {
	return fmt.Sprintf("%s.%s", v.Address.Hex(), format.Bytes(v.Selector[:]))
}

// FunctionInternalValue is a pointer to a function inside the current contract's code.

type FunctionInternalValue struct {
	FunctionType  *FunctionType
	DeployedPC    uint32
	ConstructorPC uint32
}

var _ Value = FunctionInternalValue{}

func (FunctionInternalValue) isValue() {}

func (v FunctionInternalValue) Type() Type {
	return v.FunctionType
}

func (v FunctionInternalValue) String() string {
	if v.DeployedPC == 0 && v.ConstructorPC == 0 {
		return "<zero>"
	}
	return fmt.Sprintf("<pc %d/%d>", v.DeployedPC, v.ConstructorPC)
}

// StructValue

type StructValue struct {
	StructType *StructType
	Members    []NameValuePair
}

var _ Value = StructValue{}

func (StructValue) isValue() {}

func (v StructValue) Type() Type {
	return v.StructType
}

func (v StructValue) String() string {
	return format.Composite(v.StructType.QualifiedName(), formatMembers(v.Members))
}

// Member returns the value of the member with the given name, or nil.
func (v StructValue) Member(name string) Value {
	return memberByName(v.Members, name)
}

func memberByName(members []NameValuePair, name string) Value {
	for _, member := range members {
		if member.Name == name {
			return member.Value
		}
	}
	return nil
}

// TupleValue

type TupleValue struct {
	TupleType *TupleType
	Members   []NameValuePair
}

var _ Value = TupleValue{}

func (TupleValue) isValue() {}

func (v TupleValue) Type() Type {
	return v.TupleType
}

func (v TupleValue) String() string {
	return format.Composite("", formatMembers(v.Members))
}

func (v TupleValue) Member(name string) Value {
	return memberByName(v.Members, name)
}

// EnumValue

type EnumValue struct {
	EnumType *EnumType
	Numeric  *big.Int
	Name     string
}

var _ Value = EnumValue{}

func (EnumValue) isValue() {}

func (v EnumValue) Type() Type {
	return v.EnumType
}

func (v EnumValue) String() string {
	return v.EnumType.QualifiedName() + "." + v.Name
}

// UserDefinedValueTypeValue wraps the value of the underlying type.

type UserDefinedValueTypeValue struct {
	UserDefinedValueType *UserDefinedValueType
	Value                Value
}

var _ Value = UserDefinedValueTypeValue{}

func (UserDefinedValueTypeValue) isValue() {}

func (v UserDefinedValueTypeValue) Type() Type {
	return v.UserDefinedValueType
}

func (v UserDefinedValueTypeValue) String() string {
	return fmt.Sprintf("%s.wrap(%s)", v.UserDefinedValueType.QualifiedName(), v.Value)
}

// ContractValue

type ContractValue struct {
	ContractType *ContractType
	Address      common.Address
	// Class is the contract actually found at the address, if identified.
	Class *ContractType
}

var _ Value = ContractValue{}

func (ContractValue) isValue() {}

func (v ContractValue) Type() Type {
	return v.ContractType
}

func (v ContractValue) String() string {
	name := v.ContractType.Name
	if v.Class != nil {
		name = v.Class.Name
	}
	return fmt.Sprintf("%s(%s)", name, v.Address.Hex())
}

// MagicValue

type MagicValue struct {
	MagicType *MagicType
	Members   []NameValuePair
}

var _ Value = MagicValue{}

func (MagicValue) isValue() {}

func (v MagicValue) Type() Type {
	return v.MagicType
}

func (v MagicValue) String() string {
	return format.Composite(v.MagicType.Variable.String(), formatMembers(v.Members))
}

func (v MagicValue) Member(name string) Value {
	return memberByName(v.Members, name)
}

// ErrorValue is a value that failed to decode.

type ErrorValue struct {
	ErrorType Type
	Error     DecodingError
}

var _ Value = ErrorValue{}

func NewErrorValue(typ Type, err DecodingError) ErrorValue {
	return ErrorValue{
		ErrorType: typ,
		Error:     err,
	}
}

func (ErrorValue) isValue() {}

func (v ErrorValue) Type() Type {
	return v.ErrorType
}

func (v ErrorValue) String() string {
	return fmt.Sprintf("<error: %s>", v.Error.Error())
}

// TypeHint returns a free-form description of the type of the value, for display purposes.
func TypeHint(v Value) string {
	switch v := v.(type) {
	case StructValue:
		return withLocation("struct "+v.StructType.QualifiedName(), v.StructType.Location)
	case EnumValue:
		return "enum " + v.EnumType.QualifiedName()
	case UserDefinedValueTypeValue:
		return v.UserDefinedValueType.QualifiedName()
	case ContractValue:
		if v.Class != nil && v.Class.Name != v.ContractType.Name {
			return "contract " + v.ContractType.Name + " (" + v.Class.Name + ")"
		}
		return "contract " + v.ContractType.Name
	case MagicValue:
		return v.MagicType.Variable.String()
	case ErrorValue:
		return v.ErrorType.ID() + " (error)"
	}
	return v.Type().ID()
}
