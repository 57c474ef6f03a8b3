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

package decode

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/onflow/evmcodec"
	evmcommon "github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/pointer"
)

func (d *Decoder) decodeStack(t evmcodec.Type, p pointer.StackPointer) evmcodec.Value {
	raw, err := d.read(p)
	if err != nil {
		return d.errorValue(t, err)
	}
	return d.decodeStackWords(t, raw)
}

func (d *Decoder) decodeStackLiteral(t evmcodec.Type, literal []byte) evmcodec.Value {
	if magicType, ok := t.(*evmcodec.MagicType); ok {
		return d.decodeMagic(magicType)
	}
	return d.decodeStackWords(t, literal)
}

func splitWords(raw []byte) [][]byte {
	if len(raw) <= evmcommon.WordSize {
		return [][]byte{evmcommon.PadLeft(raw, evmcommon.WordSize, 0)}
	}
	words := make([][]byte, 0, len(raw)/evmcommon.WordSize)
	for start := 0; start+evmcommon.WordSize <= len(raw); start += evmcommon.WordSize {
		words = append(words, raw[start:start+evmcommon.WordSize])
	}
	return words
}

// decodeStackWords decodes a value from the stack words it occupies.
// Value types occupy one word.
// External functions occupy two words, the address and the selector.
// References to memory and storage are one word, the address or slot.
// References to dynamic calldata are two words, the offset of the data and the length.
func (d *Decoder) decodeStackWords(t evmcodec.Type, raw []byte) evmcodec.Value {
	words := splitWords(raw)
	last := words[len(words)-1]

	if functionType, ok := t.(*evmcodec.FunctionType); ok &&
		functionType.Visibility == evmcodec.FunctionVisibilityExternal &&
		len(words) > 1 {

		return d.externalFunction(functionType, words[0][12:], last[28:])
	}

	if !evmcodec.IsReference(t) {
		return d.decodeWord(t, last, false)
	}

	switch evmcodec.LocationOf(t) {
	case evmcodec.DataLocationMemory:
		address, err := d.memoryAddress(words[0])
		if err != nil {
			return d.errorValue(t, err)
		}
		return d.decodeMemoryAt(t, address)

	case evmcodec.DataLocationStorage:
		slot := &pointer.Slot{
			Offset: new(uint256.Int).SetBytes(words[0]),
		}
		return d.decodeStorage(t, pointer.RangeFromWords(slot, 1))

	case evmcodec.DataLocationCalldata:
		return d.decodeCalldataReference(t, words)
	}

	return d.errorValue(t, &evmcodec.UnsupportedPointerError{
		Type:     t,
		Location: pointer.LocationStack.String(),
	})
}

// decodeCalldataReference decodes a value in calldata referenced from the stack.
// The offset is absolute, and points to the data itself, not to a length.
func (d *Decoder) decodeCalldataReference(t evmcodec.Type, words [][]byte) evmcodec.Value {
	dynamic := false
	switch t := t.(type) {
	case evmcodec.StringType:
		dynamic = true
	case evmcodec.BytesType:
		dynamic = t.Dynamic
	case *evmcodec.ArrayType:
		dynamic = t.Dynamic
	}

	if !dynamic {
		offset, err := d.abiOffset(pointer.LocationCalldata, words[0], 0)
		if err != nil {
			return d.errorValue(t, err)
		}
		return d.decodeABIAt(t, pointer.LocationCalldata, offset)
	}

	if len(words) < 2 {
		return d.errorValue(t, &evmcodec.ReadOutOfRangeError{
			Location:  pointer.LocationStack.String(),
			Length:    2,
			Available: uint64(len(words)),
		})
	}

	available := uint64(len(d.state.Calldata))

	length := new(big.Int).SetBytes(words[1])
	if !length.IsUint64() {
		return d.errorValue(t, d.lengthError(pointer.LocationCalldata, 0, ^uint64(0), available))
	}

	// Empty data may point past the end of calldata
	offset := new(big.Int).SetBytes(words[0])
	if length.Sign() == 0 {
		offset.SetUint64(0)
	}
	if !offset.IsUint64() || offset.Uint64() > available {
		stop(&evmcodec.OffsetOutOfRangeError{
			Location:  pointer.LocationCalldata.String(),
			Offset:    offset,
			Available: available,
		})
	}
	start := offset.Uint64()

	switch t := t.(type) {
	case *evmcodec.ArrayType:
		elements, err := d.decodeABIElements(t.Element, pointer.LocationCalldata, start, length.Uint64())
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.ArrayValue{
			ArrayType: t,
			Elements:  elements,
		}

	default:
		raw, err := d.readABIBytes(pointer.LocationCalldata, start, length.Uint64())
		if err != nil {
			return d.errorValue(t, err)
		}
		return bytesValue(t, raw)
	}
}

// bytesValue returns the value of a string or dynamic byte array with the given contents.
func bytesValue(t evmcodec.Type, raw []byte) evmcodec.Value {
	if stringType, ok := t.(evmcodec.StringType); ok {
		return evmcodec.NewStringValue(stringType, raw)
	}
	return evmcodec.BytesValue{
		BytesType: t.(evmcodec.BytesType),
		Value:     raw,
	}
}
