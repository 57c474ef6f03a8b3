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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/onflow/evmcodec"
	evmcommon "github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/encoding/abi"
	"github.com/onflow/evmcodec/pointer"
)

// SlotAddress returns the absolute address of the given slot, modulo 2^256:
//
//   - keccak256(key ++ path) + offset, for a slot of a mapping entry
//   - keccak256(path) + offset, for a slot relative to a hashed path
//   - path + offset, for a slot relative to a path
//   - offset, for an absolute slot
func SlotAddress(slot *pointer.Slot) (*uint256.Int, error) {
	offset := slot.Offset
	if offset == nil {
		offset = new(uint256.Int)
	}

	if slot.Path == nil {
		return new(uint256.Int).Set(offset), nil
	}

	path, err := SlotAddress(slot.Path)
	if err != nil {
		return nil, err
	}

	var base *uint256.Int

	switch {
	case slot.Key != nil:
		key, err := abi.EncodeMappingKey(slot.Key)
		if err != nil {
			return nil, &evmcodec.UnsupportedPointerError{
				Type:     slot.Key.Type(),
				Location: "mapping key",
			}
		}
		pathWord := path.Bytes32()
		base = new(uint256.Int).SetBytes(evmcommon.Keccak256(key, pathWord[:]))

	case slot.HashPath:
		pathWord := path.Bytes32()
		base = new(uint256.Int).SetBytes(evmcommon.Keccak256(pathWord[:]))

	default:
		base = path
	}

	return base.Add(base, offset), nil
}

// SlotHash returns the absolute address of the given slot as a storage key.
func SlotHash(slot *pointer.Slot) (common.Hash, error) {
	address, err := SlotAddress(slot)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(address.Bytes32()), nil
}
