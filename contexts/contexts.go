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

// Package contexts identifies the compiled contract a bytecode belongs to.
//
// A context is the binary of a contract's creation or deployed bytecode,
// in which the bytes that differ between deployments are wildcards:
// library addresses, immutables, and the metadata hash.
package contexts

import (
	"encoding/hex"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/compilation"
)

// Wildcard matches any hex digit in the binary of a context.
const Wildcard = '.'

// Context is the bytecode of a contract, as it is found on chain.
type Context struct {
	// Context is the ID of the context
	Context string
	// Binary is the hex encoded bytecode, with 0x prefix.
	// After normalization, it contains wildcards.
	Binary        string
	IsConstructor bool

	ContractName    string
	ContractID      string
	ContractKind    string
	CompilationID   string
	CompilerVersion string
	Payable         bool
	// LinearizedBaseContracts are the IDs of the contract and all its bases,
	// from most derived to most base
	LinearizedBaseContracts []string
	ImmutableReferences     map[string][]compilation.Span
	LinkReferences          []compilation.LinkReference
}

// Contexts are contexts by ID.
type Contexts map[string]*Context

// NewContexts returns the given contexts by ID.
func NewContexts(contexts ...*Context) Contexts {
	result := make(Contexts, len(contexts))
	for _, context := range contexts {
		result[context.Context] = context
	}
	return result
}

// FromContract returns the contexts of the creation and of the deployed bytecode of a contract.
// Contracts without bytecode, e.g. interfaces, have no contexts.
func FromContract(contract *compilation.Contract) []*Context {
	var result []*Context

	newContext := func(bytecode compilation.Bytecode, isConstructor bool) *Context {
		binary := withPrefix(bytecode.Binary)
		return &Context{
			Context:                 contextID(contract, binary, isConstructor),
			Binary:                  binary,
			IsConstructor:           isConstructor,
			ContractName:            contract.Name,
			ContractID:              contract.ID,
			ContractKind:            contract.Kind,
			CompilationID:           contract.CompilationID,
			CompilerVersion:         contract.CompilerVersion,
			Payable:                 contract.Payable,
			LinearizedBaseContracts: contract.LinearizedBaseContracts,
			ImmutableReferences:     bytecode.ImmutableReferences,
			LinkReferences:          bytecode.LinkReferences,
		}
	}

	if len(strings.TrimPrefix(contract.Bytecode.Binary, "0x")) > 0 {
		result = append(result, newContext(contract.Bytecode, true))
	}
	if len(strings.TrimPrefix(contract.DeployedBytecode.Binary, "0x")) > 0 {
		result = append(result, newContext(contract.DeployedBytecode, false))
	}
	return result
}

// FromCompilation returns the contexts of all contracts of a compilation.
func FromCompilation(c *compilation.Compilation) Contexts {
	contexts := Contexts{}
	for _, contract := range c.Contracts {
		if contract.CompilationID == "" {
			withID := *contract
			withID.CompilationID = c.ID
			contract = &withID
		}
		for _, context := range FromContract(contract) {
			contexts[context.Context] = context
		}
	}
	return contexts
}

func contextID(contract *compilation.Contract, binary string, isConstructor bool) string {
	kind := "deployed"
	if isConstructor {
		kind = "constructor"
	}
	hash := common.Keccak256(
		[]byte(contract.CompilationID),
		[]byte(contract.ID),
		[]byte(kind),
		[]byte(binary),
	)
	return "0x" + hex.EncodeToString(hash)
}

func withPrefix(binary string) string {
	if strings.HasPrefix(binary, "0x") {
		return binary
	}
	return "0x" + binary
}

// ContractType returns the type of the contract of the context.
func (c *Context) ContractType() *evmcodec.ContractType {
	return &evmcodec.ContractType{
		Kind:         evmcodec.ContractTypeKindNative,
		TypeID:       c.ContractID,
		Name:         c.ContractName,
		ContractKind: c.ContractKind,
		Payable:      c.Payable,
	}
}

// isAncestorOf returns true if the contract of this context
// is a proper base of the contract of the other context.
func (c *Context) isAncestorOf(other *Context) bool {
	return c.CompilationID == other.CompilationID &&
		c.ContractID != other.ContractID &&
		slices.Contains(other.LinearizedBaseContracts, c.ContractID)
}

var linkPlaceholderPattern = regexp.MustCompile(`__.{36}__`)

const (
	addressHexLength = 40
	// longLibraryNameLength is the length from which library names
	// are truncated in legacy link placeholders
	longLibraryNameLength = 35
	wordHexLength         = 64
)

// libraryGuard is the PUSH20 of the library's own address at the start of a library's deployed code,
// which is zero in the compiler output and the library address on chain.
var libraryGuard = "0x73" + strings.Repeat("0", addressHexLength)

var libraryGuardWildcard = "0x73" + strings.Repeat(string(Wildcard), addressHexLength)

// NormalizeContexts returns copies of the given contexts,
// in which the bytes that are unknown before deployment are replaced by wildcards.
// Normalizing normalized contexts has no effect.
func NormalizeContexts(contexts Contexts) Contexts {
	result := make(Contexts, len(contexts))
	for id, context := range contexts {
		normalized := *context
		result[id] = &normalized
	}

	// Library names from the contexts and from their link references
	var names []string
	for _, context := range result {
		if context.ContractKind == compilation.ContractKindLibrary {
			names = append(names, context.ContractName)
		}
		for _, reference := range context.LinkReferences {
			names = append(names, reference.Name)
		}
	}
	names = longLibraryNames(names)

	wildcardAddress := strings.Repeat(string(Wildcard), addressHexLength)

	for _, context := range result {
		binary := context.Binary

		for _, name := range names {
			binary = strings.ReplaceAll(binary, linkPlaceholder(name), wildcardAddress)
		}

		binary = linkPlaceholderPattern.ReplaceAllString(binary, wildcardAddress)

		// Hex digits are compared and replaced in lowercase
		binary = strings.ToLower(binary)

		if !context.IsConstructor {
			if context.ContractKind == compilation.ContractKindLibrary &&
				strings.HasPrefix(binary, libraryGuard) {

				binary = libraryGuardWildcard + binary[len(libraryGuard):]
			}

			binary = wildcardImmutables(binary, context.ImmutableReferences)
		}

		context.Binary = binary
	}

	// Contracts may contain the creation code of other contracts,
	// including their metadata
	var segments []string
	for _, context := range result {
		segment, ok := ExtractCBOR(context.Binary)
		if !ok || !isSolidityMetadata(segment) {
			continue
		}
		segments = append(segments, hex.EncodeToString(segment))
	}
	slices.Sort(segments)
	segments = slices.Compact(segments)

	for _, segment := range segments {
		wildcard := strings.Repeat(string(Wildcard), len(segment))
		for _, context := range result {
			context.Binary = strings.ReplaceAll(context.Binary, segment, wildcard)
		}
	}

	return result
}

// longLibraryNames returns the distinct long names, longest first,
// so that no name is replaced by a placeholder of a name it starts with.
func longLibraryNames(names []string) []string {
	var result []string
	for _, name := range names {
		if len(name) >= longLibraryNameLength {
			result = append(result, name)
		}
	}
	slices.Sort(result)
	result = slices.Compact(result)
	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i]) > len(result[j])
	})
	return result
}

// linkPlaceholder returns the legacy link placeholder of a library:
// the name, truncated or padded with underscores to 36 characters, between double underscores.
func linkPlaceholder(name string) string {
	const length = addressHexLength - 4
	if len(name) > length {
		name = name[:length]
	}
	return "__" + name + strings.Repeat("_", length-len(name)) + "__"
}

func wildcardImmutables(binary string, references map[string][]compilation.Span) string {
	if len(references) == 0 {
		return binary
	}

	const prefixLength = 2
	digits := []byte(binary)
	for _, spans := range references {
		for _, span := range spans {
			start := prefixLength + 2*span.Start
			end := start + 2*span.Length
			if end > uint64(len(digits)) {
				continue
			}
			for i := start; i < end; i++ {
				digits[i] = Wildcard
			}
		}
	}
	return string(digits)
}

// MatchContext returns true if the given binary matches the binary of the context.
// Constructor contexts also match binaries with constructor arguments appended.
func MatchContext(context *Context, binary string) bool {
	binary = withPrefix(binary)
	contextBinary := context.Binary

	if context.IsConstructor {
		if len(binary) < len(contextBinary) ||
			(len(binary)-len(contextBinary))%wordHexLength != 0 {

			return false
		}
	} else if len(binary) != len(contextBinary) {
		return false
	}

	for i := 0; i < len(contextBinary); i++ {
		expected := contextBinary[i]
		if expected == Wildcard {
			continue
		}
		if lower(expected) != lower(binary[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// FindContext returns the context of the given binary, or nil if there is none.
// If the binary matches contexts of several contracts of a compilation,
// the most derived contract is preferred.
// Which of several contexts unrelated by inheritance is returned is unspecified.
func FindContext(contexts Contexts, binary string) *Context {
	var matches []*Context
	for _, context := range contexts {
		if MatchContext(context, binary) {
			matches = append(matches, context)
		}
	}

	for _, match := range matches {
		isAncestor := false
		for _, other := range matches {
			if match.isAncestorOf(other) {
				isAncestor = true
				break
			}
		}
		if !isAncestor {
			return match
		}
	}
	return nil
}
