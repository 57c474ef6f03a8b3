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

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	"github.com/onflow/evmcodec/pointer"
	"github.com/onflow/evmcodec/read"
)

// DecodeABI decodes the value whose head is at the given position of an ABI encoded buffer.
// Offsets in the head are relative to base, the start of the enclosing tuple.
func (d *Decoder) DecodeABI(t evmcodec.Type, location pointer.Location, head uint64, base uint64) evmcodec.Value {
	return d.decodeABI(t, location, head, base)
}

func (d *Decoder) decodeABI(t evmcodec.Type, location pointer.Location, head uint64, base uint64) evmcodec.Value {
	_, dynamic, err := allocate.ABISize(t, d.info.Definitions)
	if err != nil {
		return d.errorValue(t, allocationError(t, location, err))
	}

	if !dynamic {
		switch t.(type) {
		case *evmcodec.ArrayType, *evmcodec.StructType, *evmcodec.TupleType:
			// Static composites are encoded in place
			return d.decodeABIAt(t, location, head)
		}

		word, err := d.read(pointer.NewBytePointer(location, head, pointer.WordSize))
		if err != nil {
			return d.errorValue(t, err)
		}
		return d.decodeWord(t, word, d.info.Options.Strict)
	}

	word, decodingErr := d.read(pointer.NewBytePointer(location, head, pointer.WordSize))
	if decodingErr != nil {
		return d.errorValue(t, decodingErr)
	}

	offset, decodingErr := d.abiOffset(location, word, base)
	if decodingErr != nil {
		return d.errorValue(t, decodingErr)
	}

	return d.decodeABIAt(t, location, offset)
}

// abiOffset returns the absolute position for the given offset word.
// An offset outside of the buffer stops decoding,
// as the rest of the enclosing structure can not be trusted either.
func (d *Decoder) abiOffset(location pointer.Location, word []byte, base uint64) (uint64, evmcodec.DecodingError) {
	available := uint64(len(read.Buffer(location, d.state)))

	offset := new(big.Int).SetBytes(word)
	offset.Add(offset, new(big.Int).SetUint64(base))

	if !offset.IsUint64() || offset.Uint64() >= available {
		return 0, &evmcodec.OffsetOutOfRangeError{
			Location:  location.String(),
			Offset:    offset,
			Available: available,
		}
	}
	return offset.Uint64(), nil
}

// decodeABIAt decodes the value whose data starts at the given position,
// i.e. the length of dynamic arrays and byte arrays, or the heads of static composites.
func (d *Decoder) decodeABIAt(t evmcodec.Type, location pointer.Location, start uint64) evmcodec.Value {
	switch t := t.(type) {
	case evmcodec.StringType:
		raw, err := d.decodeABIBytes(location, start)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.NewStringValue(t, raw)

	case evmcodec.BytesType:
		if !t.Dynamic {
			break
		}
		raw, err := d.decodeABIBytes(location, start)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.BytesValue{
			BytesType: t,
			Value:     raw,
		}

	case *evmcodec.ArrayType:
		length := t.Length
		if t.Dynamic {
			var err evmcodec.DecodingError
			length, err = d.abiLength(location, start)
			if err != nil {
				return d.errorValue(t, err)
			}
			start += pointer.WordSize
		}

		elements, err := d.decodeABIElements(t.Element, location, start, length)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.ArrayValue{
			ArrayType: t,
			Elements:  elements,
		}

	case *evmcodec.StructType:
		allocation, ok := d.allocations.ABI[t.TypeID]
		if !ok {
			return d.errorValue(t, &evmcodec.UnsupportedPointerError{
				Type:     t,
				Location: location.String(),
			})
		}
		return evmcodec.StructValue{
			StructType: t,
			Members:    d.decodeABIMembers(allocation, location, start),
		}

	case *evmcodec.TupleType:
		allocation, err := allocate.AllocateTuple(t.Members, d.info.Definitions)
		if err != nil {
			return d.errorValue(t, allocationError(t, location, err))
		}
		return evmcodec.TupleValue{
			TupleType: t,
			Members:   d.decodeABIMembers(allocation, location, start),
		}
	}

	// Value types are encoded in place
	word, err := d.read(pointer.NewBytePointer(location, start, pointer.WordSize))
	if err != nil {
		return d.errorValue(t, err)
	}
	return d.decodeWord(t, word, d.info.Options.Strict)
}

// decodeABIMembers decodes the members of the tuple starting at the given position.
func (d *Decoder) decodeABIMembers(
	allocation *allocate.ABIAllocation,
	location pointer.Location,
	start uint64,
) []evmcodec.NameValuePair {
	members := make([]evmcodec.NameValuePair, 0, len(allocation.Members))
	for _, member := range allocation.Members {
		members = append(members, evmcodec.NameValuePair{
			Name: member.Name,
			Value: d.decodeABI(
				member.Type,
				location,
				start+member.Pointer.Start,
				start,
			),
		})
	}
	return members
}

// decodeABIElements decodes the elements of an array, which are encoded like a tuple.
func (d *Decoder) decodeABIElements(
	element evmcodec.Type,
	location pointer.Location,
	start uint64,
	length uint64,
) ([]evmcodec.Value, evmcodec.DecodingError) {

	size, _, err := allocate.ABISize(element, d.info.Definitions)
	if err != nil {
		return nil, allocationError(element, location, err)
	}

	available := uint64(len(read.Buffer(location, d.state)))
	remaining := available - min(start, available)
	if size == 0 {
		if length > MaxStorageLength {
			return nil, d.lengthError(location, start, length, available)
		}
	} else if length > remaining/size {
		return nil, d.lengthError(location, start, length, available)
	}

	elements := make([]evmcodec.Value, 0, length)
	for i := uint64(0); i < length; i++ {
		elements = append(elements, d.decodeABI(element, location, start+i*size, start))
	}
	return elements, nil
}

func (d *Decoder) abiLength(location pointer.Location, start uint64) (uint64, evmcodec.DecodingError) {
	word, err := d.read(pointer.NewBytePointer(location, start, pointer.WordSize))
	if err != nil {
		return 0, err
	}
	length := new(big.Int).SetBytes(word)
	if !length.IsUint64() {
		available := uint64(len(read.Buffer(location, d.state)))
		return 0, d.lengthError(location, start, ^uint64(0), available)
	}
	return length.Uint64(), nil
}

// decodeABIBytes decodes the contents of a string or byte array:
// the length, followed by the data.
func (d *Decoder) decodeABIBytes(location pointer.Location, start uint64) ([]byte, evmcodec.DecodingError) {
	length, err := d.abiLength(location, start)
	if err != nil {
		return nil, err
	}
	return d.readABIBytes(location, start+pointer.WordSize, length)
}

func (d *Decoder) readABIBytes(location pointer.Location, start uint64, length uint64) ([]byte, evmcodec.DecodingError) {
	available := uint64(len(read.Buffer(location, d.state)))
	if start > available || length > available-start {
		return nil, d.lengthError(location, start, length, available)
	}
	return d.read(pointer.NewBytePointer(location, start, length))
}
