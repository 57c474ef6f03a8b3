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

// Package pointer defines the addressing primitives used to locate
// the bytes of a variable: pointers into the EVM's data regions,
// and storage slots.
package pointer

import "fmt"

//go:generate go run golang.org/x/tools/cmd/stringer -type=Location -linecomment

type Location uint8

const (
	LocationUnknown      Location = iota // unknown
	LocationStack                        // stack
	LocationStackLiteral                 // stackliteral
	LocationMemory                       // memory
	LocationStorage                      // storage
	LocationCalldata                     // calldata
	LocationReturndata                   // returndata
	LocationEventData                    // eventdata
	LocationEventTopic                   // eventtopic
	LocationABI                          // abi
	LocationCode                         // code
	LocationDefinition                   // definition
	LocationSpecial                      // special
	LocationNowhere                      // nowhere
)

// Pointer refers to the bytes of a value in one of the EVM's data regions.
type Pointer interface {
	isPointer()
	Location() Location
}

// BytePointer is a pointer into a flat byte buffer:
// memory, calldata, returndata, event data, code, or a generic ABI buffer.
type BytePointer interface {
	Pointer
	Span() (start uint64, length uint64)
}

// NewBytePointer returns a pointer to the given span of the buffer of the given location.
func NewBytePointer(location Location, start uint64, length uint64) BytePointer {
	switch location {
	case LocationMemory:
		return MemoryPointer{Start: start, Length: length}
	case LocationCalldata:
		return CalldataPointer{Start: start, Length: length}
	case LocationReturndata:
		return ReturndataPointer{Start: start, Length: length}
	case LocationEventData:
		return EventDataPointer{Start: start, Length: length}
	case LocationCode:
		return CodePointer{Start: start, Length: length}
	case LocationABI:
		return ABIPointer{Start: start, Length: length}
	}
	panic(fmt.Errorf("%s is not a byte location", location))
}

// StackPointer refers to the stack words From..To (inclusive), counted from the bottom.
type StackPointer struct {
	From int
	To   int
}

var _ Pointer = StackPointer{}

func (StackPointer) isPointer() {}

func (StackPointer) Location() Location {
	return LocationStack
}

// StackLiteralPointer holds the value inline, e.g. a value already popped off the stack.
type StackLiteralPointer struct {
	Literal []byte
}

var _ Pointer = StackLiteralPointer{}

func (StackLiteralPointer) isPointer() {}

func (StackLiteralPointer) Location() Location {
	return LocationStackLiteral
}

// MemoryPointer

type MemoryPointer struct {
	Start  uint64
	Length uint64
}

var _ BytePointer = MemoryPointer{}

func (MemoryPointer) isPointer() {}

func (MemoryPointer) Location() Location {
	return LocationMemory
}

func (p MemoryPointer) Span() (uint64, uint64) {
	return p.Start, p.Length
}

// StoragePointer

type StoragePointer struct {
	Range Range
}

var _ Pointer = StoragePointer{}

func (StoragePointer) isPointer() {}

func (StoragePointer) Location() Location {
	return LocationStorage
}

// CalldataPointer

type CalldataPointer struct {
	Start  uint64
	Length uint64
}

var _ BytePointer = CalldataPointer{}

func (CalldataPointer) isPointer() {}

func (CalldataPointer) Location() Location {
	return LocationCalldata
}

func (p CalldataPointer) Span() (uint64, uint64) {
	return p.Start, p.Length
}

// ReturndataPointer

type ReturndataPointer struct {
	Start  uint64
	Length uint64
}

var _ BytePointer = ReturndataPointer{}

func (ReturndataPointer) isPointer() {}

func (ReturndataPointer) Location() Location {
	return LocationReturndata
}

func (p ReturndataPointer) Span() (uint64, uint64) {
	return p.Start, p.Length
}

// EventDataPointer

type EventDataPointer struct {
	Start  uint64
	Length uint64
}

var _ BytePointer = EventDataPointer{}

func (EventDataPointer) isPointer() {}

func (EventDataPointer) Location() Location {
	return LocationEventData
}

func (p EventDataPointer) Span() (uint64, uint64) {
	return p.Start, p.Length
}

// EventTopicPointer refers to one of the topics of an event log.
type EventTopicPointer struct {
	Topic int
}

var _ Pointer = EventTopicPointer{}

func (EventTopicPointer) isPointer() {}

func (EventTopicPointer) Location() Location {
	return LocationEventTopic
}

// ABIPointer refers to a generic ABI-encoded buffer.
type ABIPointer struct {
	Start  uint64
	Length uint64
}

var _ BytePointer = ABIPointer{}

func (ABIPointer) isPointer() {}

func (ABIPointer) Location() Location {
	return LocationABI
}

func (p ABIPointer) Span() (uint64, uint64) {
	return p.Start, p.Length
}

// CodePointer refers to the deployed code, e.g. to the value of an immutable.
type CodePointer struct {
	Start  uint64
	Length uint64
}

var _ BytePointer = CodePointer{}

func (CodePointer) isPointer() {}

func (CodePointer) Location() Location {
	return LocationCode
}

func (p CodePointer) Span() (uint64, uint64) {
	return p.Start, p.Length
}

// DefinitionPointer refers to the compile-time definition of a constant.
type DefinitionPointer struct {
	Definition *Definition
}

var _ Pointer = DefinitionPointer{}

func (DefinitionPointer) isPointer() {}

func (DefinitionPointer) Location() Location {
	return LocationDefinition
}

type DefinitionKind uint8

const (
	DefinitionKindNumber DefinitionKind = iota
	DefinitionKindBool
	DefinitionKindString
	DefinitionKindHex
)

// Definition is the literal value of a constant, as written in the source.
type Definition struct {
	Name  string
	Kind  DefinitionKind
	Value string
}

// SpecialPointer refers to a named environment value, e.g. "sender" or "timestamp".
type SpecialPointer struct {
	Special string
}

var _ Pointer = SpecialPointer{}

func (SpecialPointer) isPointer() {}

func (SpecialPointer) Location() Location {
	return LocationSpecial
}

// NowherePointer is the pointer of a variable which has no location,
// e.g. an immutable that was optimized out.
type NowherePointer struct{}

var _ Pointer = NowherePointer{}

func (NowherePointer) isPointer() {}

func (NowherePointer) Location() Location {
	return LocationNowhere
}
