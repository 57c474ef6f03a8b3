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
	"bytes"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	"github.com/onflow/evmcodec/encoding/abi"
	"github.com/onflow/evmcodec/pointer"
	"github.com/onflow/evmcodec/read"
)

// MaxStorageLength is the maximum length of a string, byte array, or array in storage that is decoded.
const MaxStorageLength = 1 << 24

func (d *Decoder) decodeStorage(t evmcodec.Type, r pointer.Range) evmcodec.Value {
	switch t := t.(type) {
	case evmcodec.StringType:
		raw, err := d.decodeStorageBytes(r.From.Slot)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.NewStringValue(t, raw)

	case evmcodec.BytesType:
		if !t.Dynamic {
			break
		}
		raw, err := d.decodeStorageBytes(r.From.Slot)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.BytesValue{
			BytesType: t,
			Value:     raw,
		}

	case *evmcodec.ArrayType:
		if t.Dynamic {
			return d.decodeStorageDynamicArray(t, r.From.Slot)
		}
		return d.decodeStorageArray(t, r.From.Slot, t.Length)

	case *evmcodec.StructType:
		return d.decodeStorageStruct(t, r.From.Slot)

	case *evmcodec.MappingType:
		return d.decodeStorageMapping(t, r.From.Slot)

	case *evmcodec.TupleType, *evmcodec.MagicType:
		return d.errorValue(t, &evmcodec.UnsupportedPointerError{
			Type:     t,
			Location: pointer.LocationStorage.String(),
		})
	}

	// Value types are packed
	raw, err := d.read(pointer.StoragePointer{Range: r})
	if err != nil {
		return d.errorValue(t, err)
	}
	return d.decodeWord(t, wordOf(t, raw), false)
}

// decodeStorageBytes decodes the bytes of a string or byte array at the given slot.
// Short values (up to 31 bytes) are stored in the slot itself, with the length times two in the last byte.
// Long values store the length times two plus one in the slot,
// and the data starting at the hash of the slot.
func (d *Decoder) decodeStorageBytes(slot *pointer.Slot) ([]byte, evmcodec.DecodingError) {
	word, err := d.read(pointer.StoragePointer{Range: pointer.RangeFromWords(slot, 1)})
	if err != nil {
		return nil, err
	}

	last := word[pointer.LastIndex]
	if last&1 == 0 {
		length := int(last / 2)
		if length >= pointer.WordSize {
			return nil, d.lengthError(pointer.LocationStorage, 0, uint64(length), pointer.WordSize-1)
		}
		return bytes.Clone(word[:length]), nil
	}

	encodedLength := new(big.Int).SetBytes(word)
	length := encodedLength.Rsh(encodedLength, 1)
	if !length.IsUint64() || length.Uint64() > MaxStorageLength {
		return nil, d.lengthError(pointer.LocationStorage, 0, length.Uint64(), MaxStorageLength)
	}

	return d.readStorageData(pointer.NewHashedSlot(slot, 0), length.Uint64())
}

// readStorageData reads the given number of bytes from consecutive words starting at the given slot.
func (d *Decoder) readStorageData(start *pointer.Slot, length uint64) ([]byte, evmcodec.DecodingError) {
	result := make([]byte, 0, length)

	words := (length + pointer.WordSize - 1) / pointer.WordSize
	for offset := uint64(0); offset < words; offset += read.MaxStorageReadWords {
		count := min(words-offset, read.MaxStorageReadWords)
		data, err := d.read(pointer.StoragePointer{
			Range: pointer.RangeFromWords(start.Plus(offset), count),
		})
		if err != nil {
			return nil, err
		}
		result = append(result, data...)
	}

	return result[:length], nil
}

func (d *Decoder) decodeStorageDynamicArray(t *evmcodec.ArrayType, slot *pointer.Slot) evmcodec.Value {
	word, err := d.read(pointer.StoragePointer{Range: pointer.RangeFromWords(slot, 1)})
	if err != nil {
		return d.errorValue(t, err)
	}

	length := new(big.Int).SetBytes(word)
	if !length.IsUint64() || length.Uint64() > MaxStorageLength {
		return d.errorValue(t, d.lengthError(pointer.LocationStorage, 0, length.Uint64(), MaxStorageLength))
	}

	return d.decodeStorageArray(t, pointer.NewHashedSlot(slot, 0), length.Uint64())
}

// decodeStorageArray decodes the elements of an array starting at the given slot.
// Elements smaller than a word are packed, but never split across words.
func (d *Decoder) decodeStorageArray(t *evmcodec.ArrayType, base *pointer.Slot, length uint64) evmcodec.Value {
	size, err := allocate.StorageSize(t.Element, d.info.Definitions)
	if err != nil {
		return d.errorValue(t, allocationError(t, pointer.LocationStorage, err))
	}

	element := evmcodec.WithLocation(t.Element, evmcodec.DataLocationStorage)
	elements := make([]evmcodec.Value, 0, length)

	for i := uint64(0); i < length; i++ {
		var r pointer.Range

		if size.Words {
			slot := pointer.NewChildSlot(base, i*size.Count)
			r = pointer.RangeFromWords(slot, size.Count)
		} else {
			perWord := pointer.WordSize / size.Count
			slot := pointer.NewChildSlot(base, i/perWord)
			to := pointer.LastIndex - int((i%perWord)*size.Count)
			r = pointer.Range{
				From: pointer.StoragePosition{Slot: slot, Index: to - int(size.Count) + 1},
				To:   pointer.StoragePosition{Slot: slot, Index: to},
			}
		}

		elements = append(elements, d.decodeStorage(element, r))
	}

	return evmcodec.ArrayValue{
		ArrayType: t,
		Elements:  elements,
	}
}

func (d *Decoder) decodeStorageStruct(t *evmcodec.StructType, base *pointer.Slot) evmcodec.Value {
	allocation, ok := d.allocations.Storage[t.TypeID]
	if !ok {
		return d.errorValue(t, &evmcodec.UserDefinedTypeNotFoundError{TypeID: t.TypeID})
	}

	members := make([]evmcodec.NameValuePair, 0, len(allocation.Members))
	for _, member := range allocation.Members {
		r := allocate.Relocate(member.Pointer.Range, base)
		members = append(members, evmcodec.NameValuePair{
			Name:  member.Name,
			Value: d.decodeStorage(member.Type, r),
		})
	}

	return evmcodec.StructValue{
		StructType: t,
		Members:    members,
	}
}

// decodeStorageMapping decodes the entries of a mapping for all keys observed so far.
func (d *Decoder) decodeStorageMapping(t *evmcodec.MappingType, slot *pointer.Slot) evmcodec.Value {
	mappingAddress, err := read.SlotAddress(slot)
	if err != nil {
		return d.errorValue(t, d.decodingError(err))
	}

	valueType := evmcodec.WithLocation(t.Value, evmcodec.DataLocationStorage)
	size, err := allocate.StorageSize(valueType, d.info.Definitions)
	if err != nil {
		return d.errorValue(t, allocationError(t, pointer.LocationStorage, err))
	}

	entries := make([]evmcodec.MappingEntry, 0)
	seen := map[string]struct{}{}

	for _, keySlot := range d.info.MappingKeys {
		if keySlot.Key == nil || keySlot.Path == nil {
			continue
		}

		if !d.sameSlot(keySlot.Path, mappingAddress) {
			continue
		}

		encodedKey, err := abi.EncodeMappingKey(keySlot.Key)
		if err != nil {
			continue
		}
		if _, ok := seen[string(encodedKey)]; ok {
			continue
		}
		seen[string(encodedKey)] = struct{}{}

		entrySlot := pointer.NewMappingSlot(slot, keySlot.Key)

		var r pointer.Range
		if size.Words {
			r = pointer.RangeFromWords(entrySlot, size.Count)
		} else {
			r = pointer.Range{
				From: pointer.StoragePosition{Slot: entrySlot, Index: pointer.WordSize - int(size.Count)},
				To:   pointer.StoragePosition{Slot: entrySlot, Index: pointer.LastIndex},
			}
		}

		entries = append(entries, evmcodec.MappingEntry{
			Key:   keySlot.Key,
			Value: d.decodeStorage(valueType, r),
		})
	}

	return evmcodec.MappingValue{
		MappingType: t,
		Entries:     entries,
	}
}

func (d *Decoder) sameSlot(slot *pointer.Slot, address *uint256.Int) bool {
	other, err := read.SlotAddress(slot)
	if err != nil {
		return false
	}
	return other.Eq(address)
}
