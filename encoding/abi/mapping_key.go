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

package abi

import (
	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/common"
)

// EncodeMappingKey encodes the given key the way Solidity does
// before hashing it to compute the slot of a mapping entry.
//
// Value types are padded to a full word.
// Dynamic bytes and strings are not padded at all.
func EncodeMappingKey(key evmcodec.Value) ([]byte, error) {
	switch key := key.(type) {
	case evmcodec.BytesValue:
		if key.BytesType.Dynamic {
			return key.Value, nil
		}
		return common.PadRight(key.Value, common.WordSize), nil

	case evmcodec.StringValue:
		return key.Bytes(), nil

	case evmcodec.UserDefinedValueTypeValue:
		return EncodeMappingKey(key.Value)
	}

	if !evmcodec.IsElementary(key.Type()) {
		return nil, &UnsupportedValueError{
			Value: key,
			Usage: "mapping key",
		}
	}

	return encodeWord(key)
}
