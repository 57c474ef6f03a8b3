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

package compilation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/onflow/evmcodec"
)

// InvalidABITypeError is returned for a type name that is not a valid ABI type.
type InvalidABITypeError struct {
	TypeName string
}

func (*InvalidABITypeError) IsUserError() {}

func (e *InvalidABITypeError) Error() string {
	return fmt.Sprintf("invalid ABI type %q", e.TypeName)
}

// ABIParameter is a parameter in the JSON ABI of a contract.
type ABIParameter struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	InternalType string         `json:"internalType,omitempty"`
	Components   []ABIParameter `json:"components,omitempty"`
	Indexed      bool           `json:"indexed,omitempty"`
}

type abiEntry struct {
	Type            string         `json:"type"`
	Name            string         `json:"name"`
	Inputs          []ABIParameter `json:"inputs"`
	Outputs         []ABIParameter `json:"outputs"`
	StateMutability string         `json:"stateMutability"`
	Anonymous       bool           `json:"anonymous"`
}

// ABI is the interface of a contract, as described by its JSON ABI.
type ABI struct {
	Constructor *Function
	Functions   []Function
	Events      []Event
}

// ParseABI parses the JSON ABI of a contract, as emitted by the compiler.
// Errors and fallback functions are ignored.
func ParseABI(data []byte) (*ABI, error) {
	var entries []abiEntry
	err := json.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	result := &ABI{}

	for _, entry := range entries {
		inputs, err := parseABIParameters(entry.Inputs)
		if err != nil {
			return nil, err
		}

		switch entry.Type {
		case "function", "":
			outputs, err := parseABIParameters(entry.Outputs)
			if err != nil {
				return nil, err
			}
			result.Functions = append(result.Functions, Function{
				Name:       entry.Name,
				Inputs:     inputs,
				Outputs:    outputs,
				Mutability: entry.StateMutability,
			})

		case "constructor":
			result.Constructor = &Function{
				Inputs:     inputs,
				Mutability: entry.StateMutability,
			}

		case "event":
			result.Events = append(result.Events, Event{
				Name:      entry.Name,
				Inputs:    inputs,
				Anonymous: entry.Anonymous,
			})
		}
	}

	return result, nil
}

func parseABIParameters(parameters []ABIParameter) ([]Parameter, error) {
	result := make([]Parameter, 0, len(parameters))
	for _, parameter := range parameters {
		t, err := parseABIParameterType(parameter)
		if err != nil {
			return nil, err
		}
		result = append(result, Parameter{
			Name:    parameter.Name,
			Type:    t,
			Indexed: parameter.Indexed,
		})
	}
	return result, nil
}

func parseABIParameterType(parameter ABIParameter) (evmcodec.Type, error) {
	// Contracts are encoded as addresses,
	// but the internal type retains the contract name
	if parameter.Type == "address" &&
		strings.HasPrefix(parameter.InternalType, "contract ") {

		name := strings.TrimPrefix(parameter.InternalType, "contract ")
		return &evmcodec.ContractType{
			Kind:         evmcodec.ContractTypeKindForeign,
			Name:         name,
			ContractKind: ContractKindContract,
		}, nil
	}

	return ParseABIType(parameter.Type, parameter.Components)
}

var (
	abiUintRegexp        = regexp.MustCompile(`^uint(\d*)$`)
	abiIntRegexp         = regexp.MustCompile(`^int(\d*)$`)
	abiUfixedRegexp      = regexp.MustCompile(`^ufixed(?:(\d+)x(\d+))?$`)
	abiFixedRegexp       = regexp.MustCompile(`^fixed(?:(\d+)x(\d+))?$`)
	abiBytesRegexp       = regexp.MustCompile(`^bytes(\d+)$`)
	abiStaticArrayRegexp = regexp.MustCompile(`^(.+)\[(\d+)\]$`)
	abiArrayRegexp       = regexp.MustCompile(`^(.+)\[\]$`)
)

// ParseABIType parses a type name of the JSON ABI, such as "uint256", "bytes32[2]",
// or "tuple[]". The components are the members of tuple types.
//
// Reference types are in memory.
func ParseABIType(typeName string, components []ABIParameter) (evmcodec.Type, error) {
	invalid := &InvalidABITypeError{TypeName: typeName}

	switch {
	case typeName == "bool":
		return evmcodec.TheBoolType, nil

	case typeName == "address":
		return evmcodec.AddressType{Kind: evmcodec.AddressKindGeneral}, nil

	case typeName == "function":
		return evmcodec.TheGeneralExternalFunctionType, nil

	case typeName == "string":
		return evmcodec.StringType{Location: evmcodec.DataLocationMemory}, nil

	case typeName == "bytes":
		return evmcodec.NewDynamicBytesType(evmcodec.DataLocationMemory), nil

	case typeName == "byte":
		return evmcodec.NewStaticBytesType(1), nil

	case typeName == "tuple":
		members := make([]evmcodec.NameTypePair, 0, len(components))
		for _, component := range components {
			memberType, err := parseABIParameterType(component)
			if err != nil {
				return nil, err
			}
			members = append(members, evmcodec.NameTypePair{
				Name: component.Name,
				Type: memberType,
			})
		}
		return evmcodec.NewTupleType(members), nil

	case abiStaticArrayRegexp.MatchString(typeName):
		match := abiStaticArrayRegexp.FindStringSubmatch(typeName)
		length, err := strconv.ParseUint(match[2], 10, 64)
		if err != nil {
			return nil, invalid
		}
		element, err := ParseABIType(match[1], components)
		if err != nil {
			return nil, err
		}
		return evmcodec.NewStaticArrayType(element, length, evmcodec.DataLocationMemory), nil

	case abiArrayRegexp.MatchString(typeName):
		match := abiArrayRegexp.FindStringSubmatch(typeName)
		element, err := ParseABIType(match[1], components)
		if err != nil {
			return nil, err
		}
		return evmcodec.NewDynamicArrayType(element, evmcodec.DataLocationMemory), nil

	case abiBytesRegexp.MatchString(typeName):
		match := abiBytesRegexp.FindStringSubmatch(typeName)
		length, err := strconv.ParseUint(match[1], 10, 8)
		if err != nil || length == 0 || length > 32 {
			return nil, invalid
		}
		return evmcodec.NewStaticBytesType(uint(length)), nil

	case abiUintRegexp.MatchString(typeName):
		bits, ok := parseBits(abiUintRegexp.FindStringSubmatch(typeName)[1], 256)
		if !ok {
			return nil, invalid
		}
		return evmcodec.UintType{Bits: bits}, nil

	case abiIntRegexp.MatchString(typeName):
		bits, ok := parseBits(abiIntRegexp.FindStringSubmatch(typeName)[1], 256)
		if !ok {
			return nil, invalid
		}
		return evmcodec.IntType{Bits: bits}, nil

	case abiUfixedRegexp.MatchString(typeName):
		bits, places, ok := parseFixed(abiUfixedRegexp.FindStringSubmatch(typeName))
		if !ok {
			return nil, invalid
		}
		return evmcodec.UfixedType{Bits: bits, Places: places}, nil

	case abiFixedRegexp.MatchString(typeName):
		bits, places, ok := parseFixed(abiFixedRegexp.FindStringSubmatch(typeName))
		if !ok {
			return nil, invalid
		}
		return evmcodec.FixedType{Bits: bits, Places: places}, nil
	}

	return nil, invalid
}

// parseBits parses the bit size of an integer type.
// A missing size is the given default.
func parseBits(digits string, defaultBits uint) (uint, bool) {
	if digits == "" {
		return defaultBits, true
	}
	bits, err := strconv.ParseUint(digits, 10, 16)
	if err != nil || bits == 0 || bits > 256 || bits%8 != 0 {
		return 0, false
	}
	return uint(bits), true
}

// parseFixed parses the bit size and decimal places of a fixed point type.
// "fixed" and "ufixed" are aliases of 128x18.
func parseFixed(match []string) (bits uint, places uint, ok bool) {
	if match[1] == "" {
		return 128, 18, true
	}
	bits, ok = parseBits(match[1], 128)
	if !ok {
		return 0, 0, false
	}
	parsedPlaces, err := strconv.ParseUint(match[2], 10, 8)
	if err != nil || parsedPlaces > 80 {
		return 0, 0, false
	}
	return bits, uint(parsedPlaces), true
}
