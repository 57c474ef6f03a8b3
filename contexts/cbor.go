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

package contexts

import (
	"encoding/hex"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// metadataLengthSize is the size of the length of the metadata,
// which is appended to the metadata.
const metadataLengthSize = 2

// metadataKeys are the keys of the source hash in the metadata of the Solidity compiler.
var metadataKeys = []string{"bzzr0", "bzzr1", "ipfs"}

// cborDecMode limits the resources used for decoding untrusted metadata.
var cborDecMode = func() cbor.DecMode {
	decMode, err := cbor.DecOptions{
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 16,
		MaxMapPairs:      16,
		MaxNestedLevels:  4,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return decMode
}()

// ExtractCBOR returns the CBOR encoded metadata at the end of the given binary:
// the last two bytes are the length of the metadata, which precedes them.
// The metadata is not decoded.
func ExtractCBOR(binary string) ([]byte, bool) {
	binary = strings.TrimPrefix(binary, "0x")
	if len(binary)%2 != 0 || len(binary) < 2*metadataLengthSize {
		return nil, false
	}

	lengthHex := binary[len(binary)-2*metadataLengthSize:]
	lengthBytes, err := hex.DecodeString(lengthHex)
	if err != nil {
		return nil, false
	}
	length := int(lengthBytes[0])<<8 | int(lengthBytes[1])
	if length == 0 {
		return nil, false
	}

	end := len(binary) - 2*metadataLengthSize
	start := end - 2*length
	if start < 0 {
		return nil, false
	}

	segment, err := hex.DecodeString(binary[start:end])
	if err != nil {
		return nil, false
	}
	return segment, true
}

// isSolidityMetadata returns true if the given CBOR is a map
// containing the hash of the sources.
func isSolidityMetadata(segment []byte) bool {
	var metadata map[string]any
	if err := cborDecMode.Unmarshal(segment, &metadata); err != nil {
		return false
	}
	for _, key := range metadataKeys {
		if _, ok := metadata[key]; ok {
			return true
		}
	}
	return false
}
