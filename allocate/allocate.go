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

// Package allocate computes where the members of composite types
// and the state variables of contracts are located:
// in storage, in memory, and in ABI encoded data.
package allocate

import (
	"fmt"

	"github.com/onflow/evmcodec"
)

// UnsupportedTypeError is returned for a type that cannot be allocated
// in the requested location, e.g. a mapping in memory.
type UnsupportedTypeError struct {
	Type     evmcodec.Type
	Location string
}

func (*UnsupportedTypeError) IsUserError() {}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("cannot allocate %s in %s", e.Type.ID(), e.Location)
}

// RecursiveTypeError is returned for a struct that contains itself
// without indirection, which would have infinite size.
type RecursiveTypeError struct {
	TypeID string
}

func (*RecursiveTypeError) IsUserError() {}

func (e *RecursiveTypeError) Error() string {
	return fmt.Sprintf("struct %s contains itself", e.TypeID)
}

// Allocations are the layouts of all structs of a compilation.
type Allocations struct {
	Storage StorageAllocations
	Memory  MemoryAllocations
	ABI     ABIAllocations
}

// GetAllocations computes the storage, memory, and ABI layouts of all structs in the given definitions.
func GetAllocations(definitions evmcodec.TypeDefinitions) *Allocations {
	return &Allocations{
		Storage: GetStorageAllocations(definitions),
		Memory:  GetMemoryAllocations(definitions),
		ABI:     GetABIAllocations(definitions),
	}
}
