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

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/contexts"
)

// File is a set of compilations, as written in a YAML or JSON file.
type File struct {
	Compilations []Compilation `yaml:"compilations"`
}

type Compilation struct {
	ID        string     `yaml:"id"`
	Compiler  string     `yaml:"compiler"`
	Contracts []Contract `yaml:"contracts"`
}

type Contract struct {
	ID                      string   `yaml:"id"`
	Name                    string   `yaml:"name"`
	Kind                    string   `yaml:"kind"`
	Payable                 bool     `yaml:"payable"`
	LinearizedBaseContracts []string `yaml:"linearizedBaseContracts"`
	Bytecode                Bytecode `yaml:"bytecode"`
	DeployedBytecode        Bytecode `yaml:"deployedBytecode"`
}

type Bytecode struct {
	Binary              string            `yaml:"binary"`
	LinkReferences      []LinkReference   `yaml:"linkReferences"`
	ImmutableReferences map[string][]Span `yaml:"immutableReferences"`
}

type LinkReference struct {
	Name    string   `yaml:"name"`
	Offsets []uint64 `yaml:"offsets"`
	Length  uint64   `yaml:"length"`
}

type Span struct {
	Start  uint64 `yaml:"start"`
	Length uint64 `yaml:"length"`
}

// ParseFile parses a set of compilations.
// JSON is accepted as well, as it is a subset of YAML.
func ParseFile(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse contexts file: %w", err)
	}
	return &file, nil
}

// ReadFile reads and parses the set of compilations at the given path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contexts file: %w", err)
	}
	return ParseFile(data)
}

func (b Bytecode) bytecode() compilation.Bytecode {
	result := compilation.Bytecode{
		Binary: b.Binary,
	}

	for _, reference := range b.LinkReferences {
		result.LinkReferences = append(result.LinkReferences, compilation.LinkReference{
			Name:    reference.Name,
			Offsets: reference.Offsets,
			Length:  reference.Length,
		})
	}

	if len(b.ImmutableReferences) > 0 {
		result.ImmutableReferences = make(map[string][]compilation.Span, len(b.ImmutableReferences))
		for id, spans := range b.ImmutableReferences {
			converted := make([]compilation.Span, 0, len(spans))
			for _, span := range spans {
				converted = append(converted, compilation.Span{
					Start:  span.Start,
					Length: span.Length,
				})
			}
			result.ImmutableReferences[id] = converted
		}
	}

	return result
}

// Contexts returns the normalized contexts of all contracts in the file.
func (f *File) Contexts() contexts.Contexts {
	all := contexts.Contexts{}

	for _, c := range f.Compilations {
		for _, contract := range c.Contracts {
			compiled := &compilation.Contract{
				ID:                      contract.ID,
				Name:                    contract.Name,
				Kind:                    contract.Kind,
				CompilationID:           c.ID,
				CompilerVersion:         c.Compiler,
				Payable:                 contract.Payable,
				LinearizedBaseContracts: contract.LinearizedBaseContracts,
				Bytecode:                contract.Bytecode.bytecode(),
				DeployedBytecode:        contract.DeployedBytecode.bytecode(),
			}
			if compiled.Kind == "" {
				compiled.Kind = compilation.ContractKindContract
			}
			if len(compiled.LinearizedBaseContracts) == 0 {
				compiled.LinearizedBaseContracts = []string{compiled.ID}
			}

			for _, context := range contexts.FromContract(compiled) {
				all[context.Context] = context
			}
		}
	}

	return contexts.NormalizeContexts(all)
}
