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

package abi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onflow/evmcodec"
	evmcommon "github.com/onflow/evmcodec/common"
)

// UnsupportedTypeError is returned for a type that has no ABI representation,
// e.g. a mapping, or an internal function.
type UnsupportedTypeError struct {
	Type evmcodec.Type
}

func (*UnsupportedTypeError) IsUserError() {}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("type %s has no ABI representation", e.Type.ID())
}

// CanonicalTypeName returns the name of the given type
// as used in function and event signatures.
func CanonicalTypeName(t evmcodec.Type, definitions evmcodec.TypeDefinitions) (string, error) {
	switch t := t.(type) {
	case evmcodec.UintType:
		return fmt.Sprintf("uint%d", t.Bits), nil

	case evmcodec.IntType:
		return fmt.Sprintf("int%d", t.Bits), nil

	case evmcodec.BoolType:
		return "bool", nil

	case evmcodec.BytesType:
		if t.Dynamic {
			return "bytes", nil
		}
		return fmt.Sprintf("bytes%d", t.Length), nil

	case evmcodec.AddressType, *evmcodec.ContractType:
		return "address", nil

	case evmcodec.FixedType:
		return fmt.Sprintf("fixed%dx%d", t.Bits, t.Places), nil

	case evmcodec.UfixedType:
		return fmt.Sprintf("ufixed%dx%d", t.Bits, t.Places), nil

	case evmcodec.StringType:
		return "string", nil

	case *evmcodec.ArrayType:
		element, err := CanonicalTypeName(t.Element, definitions)
		if err != nil {
			return "", err
		}
		if t.Dynamic {
			return element + "[]", nil
		}
		return fmt.Sprintf("%s[%d]", element, t.Length), nil

	case *evmcodec.FunctionType:
		if t.Visibility != evmcodec.FunctionVisibilityExternal {
			break
		}
		return "function", nil

	case *evmcodec.EnumType:
		// Enums with up to 256 options are encoded as uint8
		return "uint8", nil

	case *evmcodec.UserDefinedValueType:
		definition, err := definitions.UserDefinedValueType(t.TypeID)
		if err != nil {
			return "", err
		}
		return CanonicalTypeName(definition.Underlying, definitions)

	case *evmcodec.StructType:
		definition, err := definitions.Struct(t.TypeID)
		if err != nil {
			return "", err
		}
		return canonicalTupleName(definition.Members, definitions)

	case *evmcodec.TupleType:
		return canonicalTupleName(t.Members, definitions)
	}

	return "", &UnsupportedTypeError{Type: t}
}

func canonicalTupleName(
	members []evmcodec.NameTypePair,
	definitions evmcodec.TypeDefinitions,
) (string, error) {
	types := make([]evmcodec.Type, len(members))
	for i, member := range members {
		types[i] = member.Type
	}
	return canonicalTypeList(types, definitions)
}

func canonicalTypeList(types []evmcodec.Type, definitions evmcodec.TypeDefinitions) (string, error) {
	var builder strings.Builder
	builder.WriteByte('(')
	for i, t := range types {
		if i > 0 {
			builder.WriteByte(',')
		}
		name, err := CanonicalTypeName(t, definitions)
		if err != nil {
			return "", err
		}
		builder.WriteString(name)
	}
	builder.WriteByte(')')
	return builder.String(), nil
}

// Signature returns the canonical signature of a function or event,
// e.g. "transfer(address,uint256)".
func Signature(
	name string,
	inputs []evmcodec.Type,
	definitions evmcodec.TypeDefinitions,
) (string, error) {
	parameters, err := canonicalTypeList(inputs, definitions)
	if err != nil {
		return "", err
	}
	return name + parameters, nil
}

// Selector returns the function selector for the given signature,
// i.e. the first four bytes of its hash.
func Selector(signature string) (selector [4]byte) {
	copy(selector[:], evmcommon.Keccak256([]byte(signature)))
	return
}

// EventTopic returns the first topic of a non-anonymous event with the given signature.
func EventTopic(signature string) common.Hash {
	return common.BytesToHash(evmcommon.Keccak256([]byte(signature)))
}
