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

package common

import (
	"math/big"

	"github.com/onflow/evmcodec/errors"
)

// WordSize is the size of an EVM word in bytes.
const WordSize = 32

func SignedBigIntToBigEndianBytes(bigInt *big.Int) []byte {

	switch bigInt.Sign() {
	case -1:
		// Encode as two's complement
		twosComplement := new(big.Int).Neg(bigInt)
		twosComplement.Sub(twosComplement, big.NewInt(1))
		bytes := twosComplement.Bytes()
		for i := range bytes {
			bytes[i] ^= 0xff
		}
		// Pad with 0xFF to prevent misinterpretation as positive
		if len(bytes) == 0 || bytes[0]&0x80 == 0 {
			return append([]byte{0xff}, bytes...)
		}
		return bytes

	case 0:
		return []byte{0}

	case 1:
		bytes := bigInt.Bytes()
		// Pad with 0x0 to prevent misinterpretation as negative
		if len(bytes) > 0 && bytes[0]&0x80 != 0 {
			return append([]byte{0x0}, bytes...)
		}
		return bytes

	default:
		panic(errors.NewUnreachableError())
	}
}

// SignedBigIntToSizedBytes encodes the given integer in two's complement,
// sign-extended to exactly size bytes.
// Returns false if the value does not fit.
func SignedBigIntToSizedBytes(bigInt *big.Int, size int) ([]byte, bool) {
	bytes := SignedBigIntToBigEndianBytes(bigInt)
	if len(bytes) > size {
		return nil, false
	}

	var fill byte
	if bigInt.Sign() < 0 {
		fill = 0xff
	}

	result := make([]byte, size)
	padding := size - len(bytes)
	for i := 0; i < padding; i++ {
		result[i] = fill
	}
	copy(result[padding:], bytes)
	return result, true
}

// UnsignedBigIntToSizedBytes encodes the given non-negative integer,
// zero-padded on the left to exactly size bytes.
// Returns false if the value is negative or does not fit.
func UnsignedBigIntToSizedBytes(bigInt *big.Int, size int) ([]byte, bool) {
	if bigInt.Sign() < 0 {
		return nil, false
	}
	bytes := bigInt.Bytes()
	if len(bytes) > size {
		return nil, false
	}
	result := make([]byte, size)
	copy(result[size-len(bytes):], bytes)
	return result, true
}

// BigEndianBytesToSignedBigInt interprets the given bytes
// as a two's complement integer of len(b) bytes.
func BigEndianBytesToSignedBigInt(b []byte) *big.Int {
	result := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		result.Sub(result, modulus)
	}
	return result
}

func BigEndianBytesToUnsignedBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// PadLeft returns b left-padded with fill to size bytes.
// b is returned unchanged if it is already at least size bytes long.
func PadLeft(b []byte, size int, fill byte) []byte {
	if len(b) >= size {
		return b
	}
	result := make([]byte, size)
	padding := size - len(b)
	for i := 0; i < padding; i++ {
		result[i] = fill
	}
	copy(result[padding:], b)
	return result
}

// PadRight returns b right-padded with zeros to size bytes.
func PadRight(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	result := make([]byte, size)
	copy(result, b)
	return result
}

// PaddedLength rounds the given length up to a multiple of the word size.
func PaddedLength(length uint64) uint64 {
	return (length + WordSize - 1) / WordSize * WordSize
}
