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
	"github.com/onflow/evmcodec/pointer"
)

// MemoryMemberAllocation is the location of a struct member in memory,
// relative to the start of the struct.
type MemoryMemberAllocation struct {
	Name    string
	Type    evmcodec.Type
	Pointer pointer.MemoryPointer
}

// MemoryAllocation is the memory layout of a struct.
type MemoryAllocation struct {
	TypeID  string
	Size    uint64
	Members []MemoryMemberAllocation
}

// MemoryAllocations are the memory layouts of structs, by type ID.
type MemoryAllocations map[string]*MemoryAllocation

// GetMemoryAllocations computes the memory layouts of all structs in the given definitions.
// Every member occupies one word: value types are stored inline,
// reference types as a pointer. Mappings are omitted from structs in memory.
func GetMemoryAllocations(definitions evmcodec.TypeDefinitions) MemoryAllocations {
	allocations := MemoryAllocations{}

	for _, definition := range definitions {
		structDefinition, ok := definition.(*evmcodec.StructDefinition)
		if !ok {
			continue
		}

		var offset uint64
		members := make([]MemoryMemberAllocation, 0, len(structDefinition.Members))

		for _, member := range structDefinition.Members {
			if _, ok := member.Type.(*evmcodec.MappingType); ok {
				continue
			}

			members = append(members, MemoryMemberAllocation{
				Name: member.Name,
				Type: evmcodec.WithLocation(member.Type, evmcodec.DataLocationMemory),
				Pointer: pointer.MemoryPointer{
					Start:  offset,
					Length: pointer.WordSize,
				},
			})
			offset += pointer.WordSize
		}

		allocations[structDefinition.TypeID] = &MemoryAllocation{
			TypeID:  structDefinition.TypeID,
			Size:    offset,
			Members: members,
		}
	}

	return allocations
}
