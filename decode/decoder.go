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
	"encoding/hex"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	evmcommon "github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/contexts"
	"github.com/onflow/evmcodec/errors"
	"github.com/onflow/evmcodec/pointer"
	"github.com/onflow/evmcodec/read"
)

// Options configure how strictly data is decoded.
type Options struct {
	// StrictBooleans rejects booleans other than 0 and 1.
	// Otherwise, any non-zero value is true.
	StrictBooleans bool
	// Strict rejects dirty padding of ABI encoded words,
	// and stops decoding for lengths that exceed the available data.
	// Otherwise, padding is ignored, and overlong values decode as errors.
	Strict bool
	// Logger defaults to a disabled logger
	Logger *zerolog.Logger
	// OnRecordTrace is called for every request the decoding was suspended on,
	// with the time it took to get the response. Tracing is disabled if nil.
	OnRecordTrace OnRecordTraceFunc
}

// Info is everything a decoding needs besides the type and pointer:
// the state snapshot, and the definitions and layouts of the compilation.
type Info struct {
	State       *read.State
	Definitions evmcodec.TypeDefinitions
	Allocations *allocate.Allocations
	// ContractAddress is the address of the contract whose storage is decoded
	ContractAddress common.Address
	// Contexts are used to identify the class of contracts by their code
	Contexts contexts.Contexts
	// MappingKeys are the slots of mapping entries observed so far.
	// Only these entries of mappings are decoded.
	MappingKeys []*pointer.Slot
	Options     Options
}

// Decoder decodes values. It is only used within an Operation.
type Decoder struct {
	info   *Info
	state  *read.State
	logger zerolog.Logger
	// suspend hands a request to the caller, nil if there is none
	suspend func(request Request) []byte

	storage map[common.Hash]common.Hash
	code    map[common.Address][]byte
	classes map[common.Address]*evmcodec.ContractType
	// allocations are computed when the caller did not supply any
	allocations *allocate.Allocations
}

type suspender interface {
	suspend(request Request) []byte
}

func newDecoder(info *Info, suspender suspender) *Decoder {
	logger := zerolog.Nop()
	if info.Options.Logger != nil {
		logger = *info.Options.Logger
	}

	state := info.State
	if state == nil {
		state = &read.State{}
	}

	decoder := &Decoder{
		info:    info,
		state:   state,
		logger:  logger.With().Str("component", "decoder").Logger(),
		storage: map[common.Hash]common.Hash{},
		code:    map[common.Address][]byte{},
		classes: map[common.Address]*evmcodec.ContractType{},

		allocations: info.Allocations,
	}
	if suspender != nil {
		decoder.suspend = suspender.suspend
	}

	if decoder.allocations == nil {
		decoder.allocations = allocate.GetAllocations(info.Definitions)
	}

	return decoder
}

var _ read.StorageFetcher = &Decoder{}

// FetchStorage returns the storage word at the given slot,
// suspending the decoding if it was not fetched before.
func (d *Decoder) FetchStorage(slot common.Hash) (common.Hash, error) {
	if word, ok := d.storage[slot]; ok {
		return word, nil
	}

	if d.suspend == nil {
		return common.Hash{}, &evmcodec.MissingStorageError{
			Slot: slot.Hex(),
		}
	}

	d.logger.Debug().
		Str("slot", slot.Hex()).
		Msg("requesting storage")

	var start time.Time
	if d.tracingEnabled() {
		start = time.Now()
	}

	response := d.suspend(StorageRequest{
		Address: d.info.ContractAddress,
		Slot:    slot,
	})

	if d.tracingEnabled() {
		d.reportStorageRequestTrace(d.info.ContractAddress, slot, time.Since(start))
	}

	word := common.BytesToHash(response)
	d.storage[slot] = word
	return word, nil
}

// fetchCode returns the code at the given address.
// It returns false if the code is unknown.
func (d *Decoder) fetchCode(address common.Address) ([]byte, bool) {
	if code, ok := d.code[address]; ok {
		return code, true
	}

	if d.suspend == nil {
		return nil, false
	}

	d.logger.Debug().
		Str("address", address.Hex()).
		Msg("requesting code")

	var start time.Time
	if d.tracingEnabled() {
		start = time.Now()
	}

	code := d.suspend(CodeRequest{Address: address})

	if d.tracingEnabled() {
		d.reportCodeRequestTrace(address, len(code), time.Since(start))
	}

	d.code[address] = code
	return code, true
}

// contractClass identifies the contract at the given address by its code.
// It returns nil if the contract is unknown.
func (d *Decoder) contractClass(address common.Address) *evmcodec.ContractType {
	if len(d.info.Contexts) == 0 {
		return nil
	}

	if class, ok := d.classes[address]; ok {
		return class
	}

	var class *evmcodec.ContractType

	code, ok := d.fetchCode(address)
	if ok && len(code) > 0 {
		binary := "0x" + hex.EncodeToString(code)
		context := contexts.FindContext(d.info.Contexts, binary)
		if context != nil {
			class = context.ContractType()
		}
	}

	d.classes[address] = class
	return class
}

// read reads the bytes at the given pointer.
func (d *Decoder) read(p pointer.Pointer) ([]byte, evmcodec.DecodingError) {
	data, err := read.Read(p, d.state, d)
	if err != nil {
		return nil, d.decodingError(err)
	}
	return data, nil
}

func (d *Decoder) decodingError(err error) evmcodec.DecodingError {
	if decodingErr, ok := err.(evmcodec.DecodingError); ok {
		return decodingErr
	}
	panic(errors.NewUnexpectedErrorFromCause(err))
}

// allocationError returns the reason a type could not be allocated in the given location.
func allocationError(t evmcodec.Type, location pointer.Location, err error) evmcodec.DecodingError {
	if decodingErr, ok := err.(evmcodec.DecodingError); ok {
		return decodingErr
	}
	return &evmcodec.UnsupportedPointerError{
		Type:     t,
		Location: location.String(),
	}
}

// errorValue returns the given localized error as a value,
// and stops decoding for fatal errors.
func (d *Decoder) errorValue(t evmcodec.Type, err evmcodec.DecodingError) evmcodec.ErrorValue {
	if err.IsFatal() {
		stop(err)
	}
	d.logger.Trace().
		Str("type", t.ID()).
		Err(err).
		Msg("decoding error")
	return evmcodec.NewErrorValue(t, err)
}

// lengthError returns the error for a length that exceeds the available data,
// which stops decoding in strict mode.
func (d *Decoder) lengthError(
	location pointer.Location,
	start uint64,
	length uint64,
	available uint64,
) evmcodec.DecodingError {
	if d.info.Options.Strict {
		return &evmcodec.OverlargeLengthError{
			Location:  location.String(),
			Length:    new(big.Int).SetUint64(length),
			Available: available,
		}
	}
	return &evmcodec.ReadOutOfRangeError{
		Location:  location.String(),
		Start:     start,
		Length:    length,
		Available: available,
	}
}

// Decode decodes the value of the given type at the given pointer.
// Errors are returned as error values, unless they stop the whole decoding.
func (d *Decoder) Decode(t evmcodec.Type, p pointer.Pointer) evmcodec.Value {
	switch p := p.(type) {
	case pointer.StoragePointer:
		return d.decodeStorage(t, p.Range)

	case pointer.StackPointer:
		return d.decodeStack(t, p)

	case pointer.StackLiteralPointer:
		return d.decodeStackLiteral(t, p.Literal)

	case pointer.MemoryPointer:
		return d.decodeMemory(t, p)

	case pointer.CalldataPointer:
		return d.decodeABI(t, pointer.LocationCalldata, p.Start, 0)

	case pointer.ReturndataPointer:
		return d.decodeABI(t, pointer.LocationReturndata, p.Start, 0)

	case pointer.EventDataPointer:
		return d.decodeABI(t, pointer.LocationEventData, p.Start, 0)

	case pointer.CodePointer:
		return d.decodeCode(t, p)

	case pointer.EventTopicPointer:
		return d.decodeTopic(t, p)

	case pointer.DefinitionPointer:
		return d.decodeDefinition(t, p)

	case pointer.SpecialPointer:
		return d.decodeSpecial(t, p)
	}

	if magicType, ok := t.(*evmcodec.MagicType); ok {
		return d.decodeMagic(magicType)
	}

	return d.errorValue(t, &evmcodec.UnsupportedPointerError{
		Type:     t,
		Location: p.Location().String(),
	})
}

// wordOf returns the given bytes of a value type as a word,
// aligned the way the value is aligned in a word.
func wordOf(t evmcodec.Type, raw []byte) []byte {
	if bytesType, ok := t.(evmcodec.BytesType); ok && !bytesType.Dynamic {
		return evmcommon.PadRight(raw, evmcommon.WordSize)
	}
	if functionType, ok := t.(*evmcodec.FunctionType); ok &&
		functionType.Visibility == evmcodec.FunctionVisibilityExternal {

		return evmcommon.PadRight(raw, evmcommon.WordSize)
	}
	return evmcommon.PadLeft(raw, evmcommon.WordSize, 0)
}
