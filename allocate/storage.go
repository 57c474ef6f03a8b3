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
	"github.com/onflow/evmcodec/errors"
	"github.com/onflow/evmcodec/pointer"
)

// StorageMemberAllocation is the location of a struct member in storage,
// relative to the slot of the struct.
type StorageMemberAllocation struct {
	Name    string
	Type    evmcodec.Type
	Pointer pointer.StoragePointer
}

// StorageAllocation is the storage layout of a struct.
type StorageAllocation struct {
	TypeID  string
	Size    pointer.StorageLength
	Members []StorageMemberAllocation
}

// StorageAllocations are the storage layouts of structs, by type ID.
type StorageAllocations map[string]*StorageAllocation

// StorageCursor is the next free position in storage:
// the slot offset, and the index of the last free byte in that word.
// Allocation proceeds from the least significant byte (index 31) to the most significant (index 0).
type StorageCursor struct {
	Offset uint64
	Index  int
}

// NewStorageCursor returns the cursor at the start of the given word.
func NewStorageCursor(offset uint64) StorageCursor {
	return StorageCursor{
		Offset: offset,
		Index:  pointer.LastIndex,
	}
}

// nextWord returns the cursor at the start of the next unused word.
func (c StorageCursor) nextWord() StorageCursor {
	if c.Index == pointer.LastIndex {
		return c
	}
	return NewStorageCursor(c.Offset + 1)
}

type storageAllocator struct {
	definitions evmcodec.TypeDefinitions
	allocations StorageAllocations
	inProgress  map[string]struct{}
}

// GetStorageAllocations computes the storage layouts of all structs in the given definitions.
// Structs that cannot be allocated, e.g. due to a missing definition, are skipped.
func GetStorageAllocations(definitions evmcodec.TypeDefinitions) StorageAllocations {
	allocator := newStorageAllocator(definitions)
	for _, definition := range definitions {
		structDefinition, ok := definition.(*evmcodec.StructDefinition)
		if !ok {
			continue
		}
		_, _ = allocator.allocateStruct(structDefinition.TypeID)
	}
	return allocator.allocations
}

func newStorageAllocator(definitions evmcodec.TypeDefinitions) *storageAllocator {
	return &storageAllocator{
		definitions: definitions,
		allocations: StorageAllocations{},
		inProgress:  map[string]struct{}{},
	}
}

// StorageSize returns the size of a value of the given type in storage.
func StorageSize(t evmcodec.Type, definitions evmcodec.TypeDefinitions) (pointer.StorageLength, error) {
	return newStorageAllocator(definitions).size(t)
}

func (a *storageAllocator) size(t evmcodec.Type) (pointer.StorageLength, error) {
	switch t := t.(type) {
	case evmcodec.UintType:
		return pointer.BytesLength(uint64(t.Bits / 8)), nil

	case evmcodec.IntType:
		return pointer.BytesLength(uint64(t.Bits / 8)), nil

	case evmcodec.FixedType:
		return pointer.BytesLength(uint64(t.Bits / 8)), nil

	case evmcodec.UfixedType:
		return pointer.BytesLength(uint64(t.Bits / 8)), nil

	case evmcodec.BoolType:
		return pointer.BytesLength(1), nil

	case evmcodec.AddressType, *evmcodec.ContractType:
		return pointer.BytesLength(20), nil

	case *evmcodec.EnumType:
		definition, err := a.definitions.Enum(t.TypeID)
		if err != nil {
			return pointer.StorageLength{}, err
		}
		return pointer.BytesLength(enumSize(len(definition.Options))), nil

	case *evmcodec.UserDefinedValueType:
		definition, err := a.definitions.UserDefinedValueType(t.TypeID)
		if err != nil {
			return pointer.StorageLength{}, err
		}
		return a.size(definition.Underlying)

	case evmcodec.BytesType:
		if t.Dynamic {
			return pointer.WordsLength(1), nil
		}
		return pointer.BytesLength(uint64(t.Length)), nil

	case evmcodec.StringType, *evmcodec.MappingType:
		return pointer.WordsLength(1), nil

	case *evmcodec.FunctionType:
		if t.Visibility == evmcodec.FunctionVisibilityExternal {
			// address and selector
			return pointer.BytesLength(24), nil
		}
		// code offsets in the deployed and in the constructor code
		return pointer.BytesLength(8), nil

	case *evmcodec.ArrayType:
		if t.Dynamic {
			return pointer.WordsLength(1), nil
		}
		return a.staticArraySize(t)

	case *evmcodec.StructType:
		allocation, err := a.allocateStruct(t.TypeID)
		if err != nil {
			return pointer.StorageLength{}, err
		}
		return allocation.Size, nil
	}

	return pointer.StorageLength{}, &UnsupportedTypeError{
		Type:     t,
		Location: "storage",
	}
}

// enumSize returns the number of bytes needed for an enum with the given number of options.
func enumSize(options int) uint64 {
	var size uint64 = 1
	for limit := 256; options > limit; limit *= 256 {
		size++
	}
	return size
}

// staticArraySize returns the number of words occupied by a static array.
// Elements smaller than a word are packed, but never split across words.
func (a *storageAllocator) staticArraySize(t *evmcodec.ArrayType) (pointer.StorageLength, error) {
	elementSize, err := a.size(t.Element)
	if err != nil {
		return pointer.StorageLength{}, err
	}

	var words uint64
	if elementSize.Words {
		words = t.Length * elementSize.Count
	} else {
		perWord := pointer.WordSize / elementSize.Count
		words = (t.Length + perWord - 1) / perWord
	}

	// Even an empty array occupies a word
	if words == 0 {
		words = 1
	}

	return pointer.WordsLength(words), nil
}

// Allocate places a value of the given size at the cursor,
// and returns its range, and the cursor after it.
// Values occupying whole words start and end at word boundaries.
func Allocate(cursor StorageCursor, size pointer.StorageLength) (pointer.Range, StorageCursor) {
	if size.Words {
		start := cursor.nextWord()
		words := size.Count
		if words == 0 {
			words = 1
		}
		r := pointer.RangeFromWords(pointer.NewSlot(start.Offset), words)
		return r, NewStorageCursor(start.Offset + words)
	}

	length := int(size.Count)
	if cursor.Index+1 < length {
		cursor = NewStorageCursor(cursor.Offset + 1)
	}

	slot := pointer.NewSlot(cursor.Offset)
	r := pointer.Range{
		From: pointer.StoragePosition{
			Slot:  slot,
			Index: cursor.Index - length + 1,
		},
		To: pointer.StoragePosition{
			Slot:  slot,
			Index: cursor.Index,
		},
	}

	next := StorageCursor{
		Offset: cursor.Offset,
		Index:  cursor.Index - length,
	}
	if next.Index < 0 {
		next = NewStorageCursor(cursor.Offset + 1)
	}

	return r, next
}

func (a *storageAllocator) allocateStruct(typeID string) (*StorageAllocation, error) {
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

	members := make([]StorageMemberAllocation, 0, len(definition.Members))
	cursor := NewStorageCursor(0)

	for _, member := range definition.Members {
		size, err := a.size(member.Type)
		if err != nil {
			return nil, err
		}

		var r pointer.Range
		r, cursor = Allocate(cursor, size)

		members = append(members, StorageMemberAllocation{
			Name:    member.Name,
			Type:    evmcodec.WithLocation(member.Type, evmcodec.DataLocationStorage),
			Pointer: pointer.StoragePointer{Range: r},
		})
	}

	// A struct always occupies whole words, and at least one
	words := cursor.nextWord().Offset
	if words == 0 {
		words = 1
	}

	allocation := &StorageAllocation{
		TypeID:  typeID,
		Size:    pointer.WordsLength(words),
		Members: members,
	}
	a.allocations[typeID] = allocation
	return allocation, nil
}

// Relocate returns the range of a member allocated relative to a struct,
// for the struct located at the given slot.
func Relocate(r pointer.Range, base *pointer.Slot) pointer.Range {
	relocate := func(position pointer.StoragePosition) pointer.StoragePosition {
		if position.Slot.Path != nil {
			panic(errors.NewUnexpectedError("cannot relocate slot %s", position.Slot))
		}
		return pointer.StoragePosition{
			Slot:  pointer.NewChildSlot(base, position.Slot.Offset.Uint64()),
			Index: position.Index,
		}
	}
	return pointer.Range{
		From: relocate(r.From),
		To:   relocate(r.To),
	}
}
