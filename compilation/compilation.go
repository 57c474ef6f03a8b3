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

// Package compilation describes the compiled contracts that values are decoded against:
// their state variables, functions, events, and bytecode.
package compilation

import (
	"encoding/hex"
	"strings"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/pointer"
)

const (
	ContractKindContract  = "contract"
	ContractKindLibrary   = "library"
	ContractKindInterface = "interface"
)

type Mutability uint8

const (
	MutabilityMutable Mutability = iota
	MutabilityImmutable
	MutabilityConstant
)

func (m Mutability) String() string {
	switch m {
	case MutabilityImmutable:
		return "immutable"
	case MutabilityConstant:
		return "constant"
	}
	return "mutable"
}

// StateVariable is a state variable declared by a contract.
type StateVariable struct {
	// ID is the AST node ID of the declaration,
	// which is also the key of its immutable references.
	ID         string
	Name       string
	Type       evmcodec.Type
	Mutability Mutability
	// Definition is the literal value of a constant
	Definition *pointer.Definition
}

type Parameter struct {
	Name    string
	Type    evmcodec.Type
	Indexed bool
}

func ParameterTypes(parameters []Parameter) []evmcodec.Type {
	types := make([]evmcodec.Type, len(parameters))
	for i, parameter := range parameters {
		types[i] = parameter.Type
	}
	return types
}

type Function struct {
	Name       string
	Inputs     []Parameter
	Outputs    []Parameter
	Mutability string
}

type Event struct {
	Name      string
	Inputs    []Parameter
	Anonymous bool
}

// Span is a byte range of bytecode.
type Span struct {
	Start  uint64
	Length uint64
}

// LinkReference is the placeholder of a library address in unlinked bytecode.
type LinkReference struct {
	Offsets []uint64
	Name    string
	Length  uint64
}

type Bytecode struct {
	// Binary is the hex encoding of the bytecode, with 0x prefix.
	// Unlinked library addresses are placeholders, which are not valid hex.
	Binary         string
	LinkReferences []LinkReference
	// ImmutableReferences are the positions of immutables in deployed bytecode,
	// by AST node ID of the state variable.
	ImmutableReferences map[string][]Span
}

// Length returns the length of the bytecode in bytes.
func (b Bytecode) Length() uint64 {
	return uint64(len(strings.TrimPrefix(b.Binary, "0x")) / 2)
}

// Bytes returns the decoded bytecode. Link placeholders are zeroed.
func (b Bytecode) Bytes() []byte {
	binary := strings.TrimPrefix(b.Binary, "0x")
	result := make([]byte, len(binary)/2)
	for i := range result {
		digits := binary[2*i : 2*i+2]
		decoded, err := hex.DecodeString(digits)
		if err != nil {
			continue
		}
		result[i] = decoded[0]
	}
	return result
}

// Contract is a compiled contract.
type Contract struct {
	ID              string
	Name            string
	Kind            string
	CompilationID   string
	CompilerVersion string
	// LinearizedBaseContracts are the IDs of the contract and all its bases,
	// from most derived (the contract itself) to most base.
	LinearizedBaseContracts []string
	// StateVariables declared by this contract, excluding inherited ones,
	// in declaration order
	StateVariables   []StateVariable
	Constructor      *Function
	Functions        []Function
	Events           []Event
	Bytecode         Bytecode
	DeployedBytecode Bytecode
	Payable          bool
}

// Type returns the native contract type of the contract.
func (c *Contract) Type() *evmcodec.ContractType {
	return &evmcodec.ContractType{
		Kind:         evmcodec.ContractTypeKindNative,
		TypeID:       c.ID,
		Name:         c.Name,
		ContractKind: c.Kind,
		Payable:      c.Payable,
	}
}

// Compilation is the output of one compiler run.
type Compilation struct {
	ID          string
	Contracts   []*Contract
	Definitions evmcodec.TypeDefinitions
}

// Contract returns the contract with the given ID, or nil if there is none.
func (c *Compilation) Contract(id string) *Contract {
	for _, contract := range c.Contracts {
		if contract.ID == id {
			return contract
		}
	}
	return nil
}

// ContractByName returns the first contract with the given name, or nil if there is none.
func (c *Compilation) ContractByName(name string) *Contract {
	for _, contract := range c.Contracts {
		if contract.Name == name {
			return contract
		}
	}
	return nil
}

// ContractsByID returns all contracts of the compilation, by ID.
func (c *Compilation) ContractsByID() map[string]*Contract {
	result := make(map[string]*Contract, len(c.Contracts))
	for _, contract := range c.Contracts {
		result[contract.ID] = contract
	}
	return result
}
