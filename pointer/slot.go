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

package pointer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/encoding/abi"
)

// WordSize is the size of a storage slot in bytes.
const WordSize = common.WordSize

// LastIndex is the index of the least significant byte of a storage word.
const LastIndex = WordSize - 1

// Slot is the address of a storage word.
//
// A slot without path is absolute.
// A slot with a path is relative to the address of the path:
// if the slot has a key, the base address is keccak256(key ++ path),
// i.e. a mapping entry; if the slot has HashPath set, it is keccak256(path),
// i.e. the data of a dynamic array; otherwise, it is the path itself,
// i.e. a member of a struct or static array.
// The offset is added to the base address, modulo 2^256.
type Slot struct {
	Offset   *uint256.Int
	Path     *Slot
	HashPath bool
	Key      evmcodec.Value
}

func NewSlot(offset uint64) *Slot {
	return &Slot{
		Offset: uint256.NewInt(offset),
	}
}

// NewChildSlot returns a slot at the given offset relative to the given parent.
func NewChildSlot(parent *Slot, offset uint64) *Slot {
	return &Slot{
		Offset: uint256.NewInt(offset),
		Path:   parent,
	}
}

// NewHashedSlot returns the slot at the given offset from the hash of the given parent,
// i.e. an element of the data segment of a dynamic array or long string.
func NewHashedSlot(parent *Slot, offset uint64) *Slot {
	return &Slot{
		Offset:   uint256.NewInt(offset),
		Path:     parent,
		HashPath: true,
	}
}

// NewMappingSlot returns the slot of the value stored under the given key
// in the mapping at the given slot.
func NewMappingSlot(mapping *Slot, key evmcodec.Value) *Slot {
	return &Slot{
		Offset:   uint256.NewInt(0),
		Path:     mapping,
		HashPath: true,
		Key:      key,
	}
}

// Plus returns a copy of the slot, with the given number of words added to its offset.
func (s *Slot) Plus(words uint64) *Slot {
	result := *s
	result.Offset = new(uint256.Int).Add(s.Offset, uint256.NewInt(words))
	return &result
}

// Equal returns true if both slots have the same offset, hashing, path, and encoded key.
func (s *Slot) Equal(other *Slot) bool {
	if s == nil || other == nil {
		return s == other
	}

	if !s.Offset.Eq(other.Offset) ||
		s.HashPath != other.HashPath {

		return false
	}

	if (s.Path == nil) != (other.Path == nil) {
		return false
	}
	if s.Path != nil && !s.Path.Equal(other.Path) {
		return false
	}

	if (s.Key == nil) != (other.Key == nil) {
		return false
	}
	if s.Key != nil {
		key, err := abi.EncodeMappingKey(s.Key)
		if err != nil {
			return false
		}
		otherKey, err := abi.EncodeMappingKey(other.Key)
		if err != nil {
			return false
		}
		if !bytes.Equal(key, otherKey) {
			return false
		}
	}

	return true
}

func (s *Slot) String() string {
	var builder strings.Builder
	if s.Path != nil {
		if s.Key != nil {
			builder.WriteString(fmt.Sprintf("keccak(%s, %s)", s.Key, s.Path))
		} else if s.HashPath {
			builder.WriteString(fmt.Sprintf("keccak(%s)", s.Path))
		} else {
			builder.WriteString(s.Path.String())
		}
		builder.WriteString(" + ")
	}
	builder.WriteString(s.Offset.Dec())
	return builder.String()
}

// StoragePosition is a byte in storage: a slot, and the index of the byte in the word.
// Index 0 is the most significant byte, index 31 the least significant.
type StoragePosition struct {
	Slot  *Slot
	Index int
}

// Range is the storage range From..To, both inclusive.
type Range struct {
	From StoragePosition
	To   StoragePosition
}

// StorageLength is the size of a value in storage,
// either in bytes (for values packed into a word), or in whole words.
type StorageLength struct {
	Words bool
	Count uint64
}

func BytesLength(count uint64) StorageLength {
	return StorageLength{Count: count}
}

func WordsLength(count uint64) StorageLength {
	return StorageLength{Words: true, Count: count}
}

// ByteCount returns the length in bytes.
func (l StorageLength) ByteCount() uint64 {
	if l.Words {
		return l.Count * WordSize
	}
	return l.Count
}

func (l StorageLength) String() string {
	if l.Words {
		return fmt.Sprintf("%d words", l.Count)
	}
	return fmt.Sprintf("%d bytes", l.Count)
}

// RangeFromWords returns the range covering the given number of whole words,
// starting at the given slot.
func RangeFromWords(slot *Slot, words uint64) Range {
	last := words
	if last > 0 {
		last--
	}
	return Range{
		From: StoragePosition{
			Slot:  slot,
			Index: 0,
		},
		To: StoragePosition{
			Slot:  slot.Plus(last),
			Index: LastIndex,
		},
	}
}
