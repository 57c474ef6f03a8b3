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

package allocate

import (
	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/pointer"
)

// ABIMemberAllocation is the location of the head of a tuple member in ABI encoded data,
// relative to the start of the tuple.
// The head of a dynamic member holds the offset of its tail, relative to the start of the tuple.
type ABIMemberAllocation struct {
	Name    string
	Type    evmcodec.Type
	Indexed bool
	Pointer pointer.ABIPointer
}

// ABIAllocation is the ABI layout of a struct or of a list of parameters.
type ABIAllocation struct {
	TypeID string
	// Length is the length of the heads of all members
	Length  uint64
	Dynamic bool
	Members []ABIMemberAllocation
}

// ABIAllocations are the ABI layouts of structs, by type ID.
type ABIAllocations map[string]*ABIAllocation

type abiAllocator struct {
	definitions evmcodec.TypeDefinitions
	allocations ABIAllocations
	inProgress  map[string]struct{}
}

func newABIAllocator(definitions evmcodec.TypeDefinitions) *abiAllocator {
	return &abiAllocator{
		definitions: definitions,
		allocations: ABIAllocations{},
		inProgress:  map[string]struct{}{},
	}
}

// GetABIAllocations computes the ABI layouts of all structs in the given definitions.
// Structs which cannot be ABI encoded, e.g. because they contain a mapping, are skipped.
func GetABIAllocations(definitions evmcodec.TypeDefinitions) ABIAllocations {
	allocator := newABIAllocator(definitions)
	for _, definition := range definitions {
		structDefinition, ok := definition.(*evmcodec.StructDefinition)
		if !ok {
			continue
		}
		_, _ = allocator.allocateStruct(structDefinition.TypeID)
	}
	return allocator.allocations
}

// ABISize returns the size of the head of a value of the given type in ABI encoded data,
// and whether the type is dynamic, i.e. the head is an offset to the actual data.
func ABISize(t evmcodec.Type, definitions evmcodec.TypeDefinitions) (size uint64, dynamic bool, err error) {
	return newABIAllocator(definitions).size(t)
}

// IsDynamic returns true if values of the given type are ABI encoded in the tail.
func IsDynamic(t evmcodec.Type, definitions evmcodec.TypeDefinitions) (bool, error) {
	_, dynamic, err := ABISize(t, definitions)
	return dynamic, err
}

func (a *abiAllocator) size(t evmcodec.Type) (uint64, bool, error) {
	switch t := t.(type) {
	case evmcodec.UintType,
		evmcodec.IntType,
		evmcodec.FixedType,
		evmcodec.UfixedType,
		evmcodec.BoolType,
		evmcodec.AddressType,
		*evmcodec.ContractType,
		*evmcodec.EnumType:

		return pointer.WordSize, false, nil

	case *evmcodec.UserDefinedValueType:
		definition, err := a.definitions.UserDefinedValueType(t.TypeID)
		if err != nil {
			return 0, false, err
		}
		return a.size(definition.Underlying)

	case evmcodec.BytesType:
		return pointer.WordSize, t.Dynamic, nil

	case evmcodec.StringType:
		return pointer.WordSize, true, nil

	case *evmcodec.FunctionType:
		if t.Visibility != evmcodec.FunctionVisibilityExternal {
			break
		}
		return pointer.WordSize, false, nil

	case *evmcodec.ArrayType:
		if t.Dynamic {
			return pointer.WordSize, true, nil
		}
		elementSize, elementDynamic, err := a.size(t.Element)
		if err != nil {
			return 0, false, err
		}
		if elementDynamic {
			return pointer.WordSize, true, nil
		}
		return t.Length * elementSize, false, nil

	case *evmcodec.StructType:
		allocation, err := a.allocateStruct(t.TypeID)
		if err != nil {
			return 0, false, err
		}
		return tupleSize(allocation)

	case *evmcodec.TupleType:
		allocation, err := a.allocateMembers("", t.Members)
		if err != nil {
			return 0, false, err
		}
		return tupleSize(allocation)
	}

	return 0, false, &UnsupportedTypeError{
		Type:     t,
		Location: "ABI",
	}
}

func tupleSize(allocation *ABIAllocation) (uint64, bool, error) {
	if allocation.Dynamic {
		return pointer.WordSize, true, nil
	}
	return allocation.Length, false, nil
}

func (a *abiAllocator) allocateStruct(typeID string) (*ABIAllocation, error) {
	if allocation, ok := a.allocations[typeID]; ok {
		return allocation, nil
	}

	if _, ok := a.inProgress[typeID]; ok {
		return nil, &RecursiveTypeError{TypeID: typeID}
	}
	a.inProgress[typeID] = struct{}{}
	defer delete(a.inProgress, typeID)

	definition, err := a.definitions.Struct(typeID)
	if err != nil {
		return nil, err
	}

	allocation, err := a.allocateMembers(typeID, definition.Members)
	if err != nil {
		return nil, err
	}

	a.allocations[typeID] = allocation
	return allocation, nil
}

func (a *abiAllocator) allocateMembers(typeID string, members []evmcodec.NameTypePair) (*ABIAllocation, error) {
	allocation := &ABIAllocation{
		TypeID:  typeID,
		Members: make([]ABIMemberAllocation, 0, len(members)),
	}

	for _, member := range members {
		size, dynamic, err := a.size(member.Type)
		if err != nil {
			return nil, err
		}

		allocation.Members = append(allocation.Members, ABIMemberAllocation{
			Name: member.Name,
			Type: member.Type,
			Pointer: pointer.ABIPointer{
				Start:  allocation.Length,
				Length: size,
			},
		})

		allocation.Length += size
		allocation.Dynamic = allocation.Dynamic || dynamic
	}

	return allocation, nil
}

// AllocateParameters computes the ABI layout of the given function or event parameters.
// Indexed parameters are skipped, as they are not part of the data.
func AllocateParameters(
	parameters []compilation.Parameter,
	definitions evmcodec.TypeDefinitions,
) (*ABIAllocation, error) {
	allocator := newABIAllocator(definitions)

	members := make([]evmcodec.NameTypePair, 0, len(parameters))
	for _, parameter := range parameters {
		if parameter.Indexed {
			continue
		}
		members = append(members, evmcodec.NameTypePair{
			Name: parameter.Name,
			Type: parameter.Type,
		})
	}

	return allocator.allocateMembers("", members)
}

// Relocate returns the location of the member,
// for the tuple starting at the given offset in the given location.
func (m ABIMemberAllocation) Relocate(location pointer.Location, base uint64) pointer.BytePointer {
	return pointer.NewBytePointer(location, base+m.Pointer.Start, m.Pointer.Length)
}

// AllocateTuple computes the ABI layout of a tuple with the given members.
func AllocateTuple(
	members []evmcodec.NameTypePair,
	definitions evmcodec.TypeDefinitions,
) (*ABIAllocation, error) {
	return newABIAllocator(definitions).allocateMembers("", members)
}
