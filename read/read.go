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

// Package read reads the raw bytes a pointer refers to from a snapshot of the EVM state.
package read

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/pointer"
)

// State is a snapshot of the EVM state. It is only read, never modified.
type State struct {
	// Stack holds the stack words, from the bottom
	Stack      []uint256.Int
	Memory     []byte
	Storage    map[common.Hash]common.Hash
	Calldata   []byte
	Returndata []byte
	EventData  []byte
	// EventTopics holds all topics of the log, including the event signature, if any
	EventTopics []common.Hash
	// Code is the deployed code of the contract
	Code []byte
	// Specials holds the values of environment variables, e.g. "sender" or "timestamp"
	Specials map[string][]byte
}

// StorageFetcher supplies the storage words that are not part of a state snapshot.
type StorageFetcher interface {
	FetchStorage(slot common.Hash) (common.Hash, error)
}

// MaxStorageReadWords is the maximum number of words of a single storage read.
const MaxStorageReadWords = 1 << 12

// Read returns the bytes the given pointer refers to.
// Storage words missing from the state are requested from the fetcher, if any.
// A read that is out of range is an error, the result is never truncated or padded.
func Read(p pointer.Pointer, state *State, fetcher StorageFetcher) ([]byte, error) {
	switch p := p.(type) {
	case pointer.StackPointer:
		return readStack(p, state.Stack)

	case pointer.StackLiteralPointer:
		return p.Literal, nil

	case pointer.StoragePointer:
		return readStorage(p.Range, state, fetcher)

	case pointer.BytePointer:
		start, length := p.Span()
		return readBytes(p.Location(), Buffer(p.Location(), state), start, length)

	case pointer.EventTopicPointer:
		if p.Topic < 0 || p.Topic >= len(state.EventTopics) {
			return nil, &evmcodec.ReadOutOfRangeError{
				Location:  pointer.LocationEventTopic.String(),
				Start:     uint64(p.Topic),
				Length:    1,
				Available: uint64(len(state.EventTopics)),
			}
		}
		return state.EventTopics[p.Topic].Bytes(), nil

	case pointer.DefinitionPointer:
		return readDefinition(p.Definition)

	case pointer.SpecialPointer:
		value, ok := state.Specials[p.Special]
		if !ok {
			return nil, &evmcodec.ReadOutOfRangeError{
				Location: pointer.LocationSpecial.String() + " " + p.Special,
			}
		}
		return value, nil
	}

	return nil, &evmcodec.ReadOutOfRangeError{
		Location: p.Location().String(),
	}
}

// Buffer returns the byte buffer of the given location, nil if the location is not a buffer.
func Buffer(location pointer.Location, state *State) []byte {
	switch location {
	case pointer.LocationMemory:
		return state.Memory
	case pointer.LocationCalldata:
		return state.Calldata
	case pointer.LocationReturndata:
		return state.Returndata
	case pointer.LocationEventData:
		return state.EventData
	case pointer.LocationCode:
		return state.Code
	}
	return nil
}

func readBytes(location pointer.Location, buffer []byte, start uint64, length uint64) ([]byte, error) {
	available := uint64(len(buffer))
	if start > available || length > available-start {
		return nil, &evmcodec.ReadOutOfRangeError{
			Location:  location.String(),
			Start:     start,
			Length:    length,
			Available: available,
		}
	}
	return buffer[start : start+length], nil
}

func readStack(p pointer.StackPointer, stack []uint256.Int) ([]byte, error) {
	if p.From < 0 || p.To < p.From || p.To >= len(stack) {
		return nil, &evmcodec.ReadOutOfRangeError{
			Location:  pointer.LocationStack.String(),
			Start:     uint64(max(p.From, 0)),
			Length:    uint64(max(p.To-p.From+1, 0)),
			Available: uint64(len(stack)),
		}
	}

	result := make([]byte, 0, (p.To-p.From+1)*pointer.WordSize)
	for i := p.From; i <= p.To; i++ {
		word := stack[i].Bytes32()
		result = append(result, word[:]...)
	}
	return result, nil
}

func readStorage(r pointer.Range, state *State, fetcher StorageFetcher) ([]byte, error) {
	from, err := SlotAddress(r.From.Slot)
	if err != nil {
		return nil, err
	}
	to, err := SlotAddress(r.To.Slot)
	if err != nil {
		return nil, err
	}

	distance := new(uint256.Int).Sub(to, from)
	if !distance.IsUint64() || distance.Uint64() >= MaxStorageReadWords {
		return nil, &evmcodec.ReadOutOfRangeError{
			Location: pointer.LocationStorage.String(),
			Length:   distance.Uint64(),
		}
	}
	words := distance.Uint64() + 1

	start := uint64(r.From.Index)
	end := (words-1)*pointer.WordSize + uint64(r.To.Index) + 1
	if r.From.Index < 0 || r.To.Index > pointer.LastIndex || end < start {
		return nil, &evmcodec.ReadOutOfRangeError{
			Location:  pointer.LocationStorage.String(),
			Start:     start,
			Length:    end - start,
			Available: words * pointer.WordSize,
		}
	}

	data := make([]byte, 0, words*pointer.WordSize)
	address := new(uint256.Int).Set(from)
	one := uint256.NewInt(1)

	for i := uint64(0); i < words; i++ {
		word, err := ReadStorageWord(common.Hash(address.Bytes32()), state, fetcher)
		if err != nil {
			return nil, err
		}
		data = append(data, word.Bytes()...)
		address.Add(address, one)
	}

	return data[start:end], nil
}

// ReadStorageWord returns the storage word at the given address,
// from the state, or from the fetcher if it is missing in the state.
func ReadStorageWord(slot common.Hash, state *State, fetcher StorageFetcher) (common.Hash, error) {
	if word, ok := state.Storage[slot]; ok {
		return word, nil
	}
	if fetcher == nil {
		return common.Hash{}, &evmcodec.MissingStorageError{
			Slot: slot.Hex(),
		}
	}
	return fetcher.FetchStorage(slot)
}
