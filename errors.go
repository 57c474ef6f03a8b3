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

package evmcodec

import (
	"fmt"
	"math/big"

	"github.com/onflow/evmcodec/format"
)

// DecodingError is the reason attached to an ErrorValue,
// or, for fatal errors, the reason a whole decoding was aborted.
type DecodingError interface {
	error
	isDecodingError()
	// IsFatal returns true if the error makes continued decoding
	// of the enclosing structure meaningless.
	IsFatal() bool
}

// ReadOutOfRangeError is reported when a read extends past the end of a buffer.
type ReadOutOfRangeError struct {
	Location  string
	Start     uint64
	Length    uint64
	Available uint64
}

var _ DecodingError = &ReadOutOfRangeError{}

func (*ReadOutOfRangeError) isDecodingError() {}

func (*ReadOutOfRangeError) IsFatal() bool {
	return false
}

func (*ReadOutOfRangeError) IsUserError() {}

func (e *ReadOutOfRangeError) Error() string {
	return fmt.Sprintf(
		"read of %d bytes at %d is out of range of %s (%d bytes available)",
		e.Length,
		e.Start,
		e.Location,
		e.Available,
	)
}

// UserDefinedTypeNotFoundError is reported when a type ID has no definition.
type UserDefinedTypeNotFoundError struct {
	TypeID string
}

var _ DecodingError = &UserDefinedTypeNotFoundError{}

func (*UserDefinedTypeNotFoundError) isDecodingError() {}

func (*UserDefinedTypeNotFoundError) IsFatal() bool {
	return false
}

func (*UserDefinedTypeNotFoundError) IsUserError() {}

func (e *UserDefinedTypeNotFoundError) Error() string {
	return fmt.Sprintf("definition of user-defined type %q not found", e.TypeID)
}

// UnsupportedPointerError is reported for a type that cannot be decoded
// from the given location, e.g. a mapping in calldata.
type UnsupportedPointerError struct {
	Type     Type
	Location string
}

var _ DecodingError = &UnsupportedPointerError{}

func (*UnsupportedPointerError) isDecodingError() {}

func (*UnsupportedPointerError) IsFatal() bool {
	return false
}

func (*UnsupportedPointerError) IsUserError() {}

func (e *UnsupportedPointerError) Error() string {
	return fmt.Sprintf("cannot decode %s from %s", e.Type.ID(), e.Location)
}

// BoolOutOfRangeError is reported under strict boolean decoding
// for a boolean with a value other than 0 or 1.
type BoolOutOfRangeError struct {
	Raw []byte
}

var _ DecodingError = &BoolOutOfRangeError{}

func (*BoolOutOfRangeError) isDecodingError() {}

func (*BoolOutOfRangeError) IsFatal() bool {
	return false
}

func (*BoolOutOfRangeError) IsUserError() {}

func (e *BoolOutOfRangeError) Error() string {
	return fmt.Sprintf("invalid boolean %s", format.Bytes(e.Raw))
}

// EnumOutOfRangeError is reported for an enum value without corresponding option.
type EnumOutOfRangeError struct {
	EnumType *EnumType
	Raw      *big.Int
}

var _ DecodingError = &EnumOutOfRangeError{}

func (*EnumOutOfRangeError) isDecodingError() {}

func (*EnumOutOfRangeError) IsFatal() bool {
	return false
}

func (*EnumOutOfRangeError) IsUserError() {}

func (e *EnumOutOfRangeError) Error() string {
	return fmt.Sprintf("value %s out of range for enum %s", e.Raw, e.EnumType.QualifiedName())
}

// PaddingError is reported under strict decoding when the padding of a word is not clean.
type PaddingError struct {
	Type Type
	Raw  []byte
}

var _ DecodingError = &PaddingError{}

func (*PaddingError) isDecodingError() {}

func (*PaddingError) IsFatal() bool {
	return false
}

func (*PaddingError) IsUserError() {}

func (e *PaddingError) Error() string {
	return fmt.Sprintf("invalid padding for %s: %s", e.Type.ID(), format.Bytes(e.Raw))
}

// MissingStorageError is reported when a storage word was not supplied.
type MissingStorageError struct {
	Slot string
}

var _ DecodingError = &MissingStorageError{}

func (*MissingStorageError) isDecodingError() {}

func (*MissingStorageError) IsFatal() bool {
	return false
}

func (*MissingStorageError) IsUserError() {}

func (e *MissingStorageError) Error() string {
	return fmt.Sprintf("storage slot %s not available", e.Slot)
}

// OffsetOutOfRangeError is reported for an ABI offset pointing outside the buffer.
type OffsetOutOfRangeError struct {
	Location  string
	Offset    *big.Int
	Available uint64
}

var _ DecodingError = &OffsetOutOfRangeError{}

func (*OffsetOutOfRangeError) isDecodingError() {}

func (*OffsetOutOfRangeError) IsFatal() bool {
	return true
}

func (*OffsetOutOfRangeError) IsUserError() {}

func (e *OffsetOutOfRangeError) Error() string {
	return fmt.Sprintf(
		"offset %s is out of range of %s (%d bytes available)",
		e.Offset,
		e.Location,
		e.Available,
	)
}

// OverlargeLengthError is reported under strict decoding for a length prefix
// that claims more data than is available.
type OverlargeLengthError struct {
	Location  string
	Length    *big.Int
	Available uint64
}

var _ DecodingError = &OverlargeLengthError{}

func (*OverlargeLengthError) isDecodingError() {}

func (*OverlargeLengthError) IsFatal() bool {
	return true
}

func (*OverlargeLengthError) IsUserError() {}

func (e *OverlargeLengthError) Error() string {
	return fmt.Sprintf(
		"length %s exceeds the %d bytes available in %s",
		e.Length,
		e.Available,
		e.Location,
	)
}

// InvalidDefinitionError is reported for a constant whose literal value cannot be interpreted.
type InvalidDefinitionError struct {
	Name    string
	Literal string
}

var _ DecodingError = &InvalidDefinitionError{}

func (*InvalidDefinitionError) isDecodingError() {}

func (*InvalidDefinitionError) IsFatal() bool {
	return false
}

func (*InvalidDefinitionError) IsUserError() {}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid literal value of constant %s: %s", e.Name, e.Literal)
}

// IndexedReferenceTypeError is reported for an indexed event argument of a reference type,
// of which only the hash is logged.
type IndexedReferenceTypeError struct {
	Type Type
	Raw  []byte
}

var _ DecodingError = &IndexedReferenceTypeError{}

func (*IndexedReferenceTypeError) isDecodingError() {}

func (*IndexedReferenceTypeError) IsFatal() bool {
	return false
}

func (*IndexedReferenceTypeError) IsUserError() {}

func (e *IndexedReferenceTypeError) Error() string {
	return fmt.Sprintf(
		"indexed argument of type %s is only logged as hash %s",
		e.Type.ID(),
		format.Bytes(e.Raw),
	)
}
