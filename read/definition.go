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

package read

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/pointer"
)

// readDefinition returns the bytes of the literal value of a constant.
// Numbers and booleans are a word, strings and hex literals are their contents.
func readDefinition(definition *pointer.Definition) ([]byte, error) {
	invalid := &evmcodec.InvalidDefinitionError{
		Name:    definition.Name,
		Literal: definition.Value,
	}

	switch definition.Kind {
	case pointer.DefinitionKindNumber:
		value, ok := ParseNumberLiteral(definition.Value)
		if !ok {
			return nil, invalid
		}
		word, ok := common.SignedBigIntToSizedBytes(value, common.WordSize)
		if !ok {
			return nil, invalid
		}
		return word, nil

	case pointer.DefinitionKindBool:
		word := make([]byte, common.WordSize)
		switch definition.Value {
		case "true":
			word[common.WordSize-1] = 1
		case "false":
		default:
			return nil, invalid
		}
		return word, nil

	case pointer.DefinitionKindString:
		return []byte(definition.Value), nil

	case pointer.DefinitionKindHex:
		value, ok := HexLiteralBytes(definition.Value)
		if !ok {
			return nil, invalid
		}
		return value, nil
	}

	return nil, invalid
}

// HexLiteralBytes returns the bytes of a hex literal, e.g. 0x1234 or hex"1234".
func HexLiteralBytes(literal string) ([]byte, bool) {
	literal = strings.TrimPrefix(literal, "0x")
	literal = strings.TrimPrefix(literal, "hex")
	literal = strings.Trim(literal, `"'`)
	literal = strings.ReplaceAll(literal, "_", "")
	if len(literal)%2 != 0 {
		return nil, false
	}
	value, err := hex.DecodeString(literal)
	if err != nil {
		return nil, false
	}
	return value, true
}

// ParseNumberLiteral parses an integer number literal:
// decimal, hexadecimal, or in scientific notation, with optional underscores,
// e.g. 1_000, 0xff, 2e18, or 1.5e3.
func ParseNumberLiteral(literal string) (*big.Int, bool) {
	literal = strings.ReplaceAll(strings.TrimSpace(literal), "_", "")

	negative := strings.HasPrefix(literal, "-")
	literal = strings.TrimPrefix(literal, "-")

	var result *big.Int

	if strings.HasPrefix(literal, "0x") {
		var ok bool
		result, ok = new(big.Int).SetString(literal[2:], 16)
		if !ok {
			return nil, false
		}
	} else {
		rat, ok := new(big.Rat).SetString(literal)
		if !ok || !rat.IsInt() {
			return nil, false
		}
		result = rat.Num()
	}

	if negative {
		result.Neg(result)
	}
	return result, true
}
