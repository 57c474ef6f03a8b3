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

// TypeDefinition is the definition of a user-defined type.
// Types refer to their definition by ID,
// which allows recursive struct definitions.
type TypeDefinition interface {
	isTypeDefinition()
	DefinitionID() string
}

// StructDefinition

type StructDefinition struct {
	TypeID           string
	Name             string
	DefiningContract string
	Members          []NameTypePair
}

var _ TypeDefinition = &StructDefinition{}

func (*StructDefinition) isTypeDefinition() {}

func (d *StructDefinition) DefinitionID() string {
	return d.TypeID
}

// Type returns the struct type for this definition, in the given location.
func (d *StructDefinition) Type(location DataLocation) *StructType {
	scope := ScopeGlobal
	if d.DefiningContract != "" {
		scope = ScopeLocal
	}
	return &StructType{
		TypeID:           d.TypeID,
		Name:             d.Name,
		DefiningContract: d.DefiningContract,
		Scope:            scope,
		Location:         location,
	}
}

// EnumDefinition

type EnumDefinition struct {
	TypeID           string
	Name             string
	DefiningContract string
	Options          []string
}

var _ TypeDefinition = &EnumDefinition{}

func (*EnumDefinition) isTypeDefinition() {}

func (d *EnumDefinition) DefinitionID() string {
	return d.TypeID
}

func (d *EnumDefinition) Type() *EnumType {
	scope := ScopeGlobal
	if d.DefiningContract != "" {
		scope = ScopeLocal
	}
	return &EnumType{
		TypeID:           d.TypeID,
		Name:             d.Name,
		DefiningContract: d.DefiningContract,
		Scope:            scope,
	}
}

// UserDefinedValueTypeDefinition

type UserDefinedValueTypeDefinition struct {
	TypeID           string
	Name             string
	DefiningContract string
	Underlying       Type
}

var _ TypeDefinition = &UserDefinedValueTypeDefinition{}

func (*UserDefinedValueTypeDefinition) isTypeDefinition() {}

func (d *UserDefinedValueTypeDefinition) DefinitionID() string {
	return d.TypeID
}

// TypeDefinitions is the table of all user-defined types of a compilation, by type ID.
type TypeDefinitions map[string]TypeDefinition

func (d TypeDefinitions) Add(definition TypeDefinition) {
	d[definition.DefinitionID()] = definition
}

func (d TypeDefinitions) Struct(typeID string) (*StructDefinition, error) {
	definition, ok := d[typeID].(*StructDefinition)
	if !ok {
		return nil, &UserDefinedTypeNotFoundError{TypeID: typeID}
	}
	return definition, nil
}

func (d TypeDefinitions) Enum(typeID string) (*EnumDefinition, error) {
	definition, ok := d[typeID].(*EnumDefinition)
	if !ok {
		return nil, &UserDefinedTypeNotFoundError{TypeID: typeID}
	}
	return definition, nil
}

func (d TypeDefinitions) UserDefinedValueType(typeID string) (*UserDefinedValueTypeDefinition, error) {
	definition, ok := d[typeID].(*UserDefinedValueTypeDefinition)
	if !ok {
		return nil, &UserDefinedTypeNotFoundError{TypeID: typeID}
	}
	return definition, nil
}
