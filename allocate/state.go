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
	"fmt"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/pointer"
)

// StateVariableAllocation is the location of a state variable.
type StateVariableAllocation struct {
	Name             string
	DefiningContract string
	Type             evmcodec.Type
	Mutability       compilation.Mutability
	// Pointer is a storage pointer for mutable variables,
	// a definition pointer for constants, and a code pointer for immutables
	Pointer pointer.Pointer
}

// ContractAllocation is the layout of all state variables of a contract,
// including the inherited ones, from most base to most derived.
type ContractAllocation struct {
	ContractID string
	Variables  []StateVariableAllocation
	// Next is the first free storage position after the state variables
	Next StorageCursor
}

// Variable returns the allocation of the state variable with the given name.
// If the name is shadowed, the most derived variable is returned.
func (a *ContractAllocation) Variable(name string) (StateVariableAllocation, bool) {
	for i := len(a.Variables) - 1; i >= 0; i-- {
		if a.Variables[i].Name == name {
			return a.Variables[i], true
		}
	}
	return StateVariableAllocation{}, false
}

// MissingContractError is returned when a base contract is not part of the compilation.
type MissingContractError struct {
	ContractID string
}

func (*MissingContractError) IsUserError() {}

func (e *MissingContractError) Error() string {
	return fmt.Sprintf("contract %s not found", e.ContractID)
}

// GetContractStateAllocation computes the locations of the state variables of the given contract.
// Base contracts are laid out first, in reverse linearization order.
func GetContractStateAllocation(
	contract *compilation.Contract,
	contracts map[string]*compilation.Contract,
	definitions evmcodec.TypeDefinitions,
) (*ContractAllocation, error) {

	allocator := newStorageAllocator(definitions)

	allocation := &ContractAllocation{
		ContractID: contract.ID,
	}

	bases := contract.LinearizedBaseContracts
	if len(bases) == 0 {
		bases = []string{contract.ID}
	}

	cursor := NewStorageCursor(0)

	for i := len(bases) - 1; i >= 0; i-- {
		baseID := bases[i]

		base := contracts[baseID]
		if base == nil {
			if baseID != contract.ID {
				return nil, &MissingContractError{ContractID: baseID}
			}
			base = contract
		}

		for _, variable := range base.StateVariables {
			variableAllocation := StateVariableAllocation{
				Name:             variable.Name,
				DefiningContract: base.Name,
				Type:             variable.Type,
				Mutability:       variable.Mutability,
			}

			switch variable.Mutability {
			case compilation.MutabilityConstant:
				if variable.Definition == nil {
					variableAllocation.Pointer = pointer.NowherePointer{}
				} else {
					variableAllocation.Pointer = pointer.DefinitionPointer{
						Definition: variable.Definition,
					}
				}

			case compilation.MutabilityImmutable:
				variableAllocation.Pointer = immutablePointer(
					contract.DeployedBytecode.ImmutableReferences[variable.ID],
				)

			default:
				size, err := allocator.size(variable.Type)
				if err != nil {
					return nil, err
				}

				var r pointer.Range
				r, cursor = Allocate(cursor, size)

				variableAllocation.Type = evmcodec.WithLocation(variable.Type, evmcodec.DataLocationStorage)
				variableAllocation.Pointer = pointer.StoragePointer{Range: r}
			}

			allocation.Variables = append(allocation.Variables, variableAllocation)
		}
	}

	allocation.Next = cursor

	return allocation, nil
}

// immutablePointer returns the pointer to the first occurrence of an immutable in the deployed code.
// The immutable might have been optimized out, in which case it is nowhere.
func immutablePointer(references []compilation.Span) pointer.Pointer {
	if len(references) == 0 {
		return pointer.NowherePointer{}
	}
	reference := references[0]
	return pointer.CodePointer{
		Start:  reference.Start,
		Length: reference.Length,
	}
}
