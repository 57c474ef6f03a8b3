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
	"github.com/onflow/evmcodec/pointer"
)

func (d *Decoder) decodeMemory(t evmcodec.Type, p pointer.MemoryPointer) evmcodec.Value {
	if _, ok := t.(*evmcodec.MappingType); ok {
		return d.errorValue(t, &evmcodec.UnsupportedPointerError{
			Type:     t,
			Location: pointer.LocationMemory.String(),
		})
	}

	word, err := d.read(pointer.MemoryPointer{Start: p.Start, Length: pointer.WordSize})
	if err != nil {
		return d.errorValue(t, err)
	}

	if !evmcodec.IsReference(t) {
		return d.decodeWord(t, word, d.info.Options.Strict)
	}

	// References are pointers to the data
	address, err := d.memoryAddress(word)
	if err != nil {
		return d.errorValue(t, err)
	}
	return d.decodeMemoryAt(t, address)
}

func (d *Decoder) memoryAddress(word []byte) (uint64, evmcodec.DecodingError) {
	address := new(big.Int).SetBytes(word)
	available := uint64(len(d.state.Memory))
	if !address.IsUint64() || address.Uint64() > available {
		return 0, &evmcodec.ReadOutOfRangeError{
			Location:  pointer.LocationMemory.String(),
			Start:     address.Uint64(),
			Available: available,
		}
	}
	return address.Uint64(), nil
}

// decodeMemoryAt decodes the reference type value starting at the given address.
func (d *Decoder) decodeMemoryAt(t evmcodec.Type, address uint64) evmcodec.Value {
	switch t := t.(type) {
	case evmcodec.StringType:
		raw, err := d.decodeMemoryBytes(address)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.NewStringValue(t, raw)

	case evmcodec.BytesType:
		raw, err := d.decodeMemoryBytes(address)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.BytesValue{
			BytesType: t,
			Value:     raw,
		}

	case *evmcodec.ArrayType:
		start := address
		length := t.Length

		if t.Dynamic {
			var err evmcodec.DecodingError
			length, err = d.memoryLength(address)
			if err != nil {
				return d.errorValue(t, err)
			}
			start += pointer.WordSize
		}

		available := uint64(len(d.state.Memory))
		if length > (available-min(start, available))/pointer.WordSize {
			return d.errorValue(t, d.lengthError(pointer.LocationMemory, start, length, available))
		}

		element := evmcodec.WithLocation(t.Element, evmcodec.DataLocationMemory)
		elements := make([]evmcodec.Value, 0, length)
		for i := uint64(0); i < length; i++ {
			elements = append(elements, d.decodeMemory(
				element,
				pointer.MemoryPointer{
					Start:  start + i*pointer.WordSize,
					Length: pointer.WordSize,
				},
			))
		}
		return evmcodec.ArrayValue{
			ArrayType: t,
			Elements:  elements,
		}

	case *evmcodec.StructType:
		allocation, ok := d.allocations.Memory[t.TypeID]
		if !ok {
			return d.errorValue(t, &evmcodec.UserDefinedTypeNotFoundError{TypeID: t.TypeID})
		}

		members := make([]evmcodec.NameValuePair, 0, len(allocation.Members))
		for _, member := range allocation.Members {
			members = append(members, evmcodec.NameValuePair{
				Name: member.Name,
				Value: d.decodeMemory(
					member.Type,
					pointer.MemoryPointer{
						Start:  address + member.Pointer.Start,
						Length: member.Pointer.Length,
					},
				),
			})
		}
		return evmcodec.StructValue{
			StructType: t,
			Members:    members,
		}
	}

	return d.errorValue(t, &evmcodec.UnsupportedPointerError{
		Type:     t,
		Location: pointer.LocationMemory.String(),
	})
}

func (d *Decoder) memoryLength(address uint64) (uint64, evmcodec.DecodingError) {
	word, err := d.read(pointer.MemoryPointer{Start: address, Length: pointer.WordSize})
	if err != nil {
		return 0, err
	}
	length := new(big.Int).SetBytes(word)
	if !length.IsUint64() {
		available := uint64(len(d.state.Memory))
		return 0, d.lengthError(pointer.LocationMemory, address, ^uint64(0), available)
	}
	return length.Uint64(), nil
}

// decodeMemoryBytes decodes the contents of a string or byte array:
// the length, followed by the data.
func (d *Decoder) decodeMemoryBytes(address uint64) ([]byte, evmcodec.DecodingError) {
	length, err := d.memoryLength(address)
	if err != nil {
		return nil, err
	}

	start := address + pointer.WordSize
	available := uint64(len(d.state.Memory))
	if start > available || length > available-start {
		return nil, d.lengthError(pointer.LocationMemory, start, length, available)
	}

	return d.read(pointer.MemoryPointer{Start: start, Length: length})
}
