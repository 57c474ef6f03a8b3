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

package contexts

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/test_utils/common_utils"
)

func metadataHex(t *testing.T, hashByte byte) string {
	t.Helper()

	hash := make([]byte, 34)
	for i := range hash {
		hash[i] = hashByte
	}
	encoded, err := cbor.Marshal(map[string]any{
		"ipfs": hash,
		"solc": []byte{0, 8, 19},
	})
	require.NoError(t, err)

	length := len(encoded)
	return hex.EncodeToString(encoded) + hex.EncodeToString([]byte{byte(length >> 8), byte(length)})
}

func TestMatchContext(t *testing.T) {

	t.Parallel()

	deployed := &Context{
		Binary: "0x6080....40",
	}
	constructor := &Context{
		Binary:        "0x6080604052",
		IsConstructor: true,
	}

	t.Run("exact", func(t *testing.T) {
		t.Parallel()
		assert.True(t, MatchContext(deployed, "0x6080ffee40"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()
		assert.True(t, MatchContext(deployed, "0x6080FFEE40"))
	})

	t.Run("without prefix", func(t *testing.T) {
		t.Parallel()
		assert.True(t, MatchContext(deployed, "6080ffee40"))
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()
		assert.False(t, MatchContext(deployed, "0x6081ffee40"))
	})

	t.Run("deployed length", func(t *testing.T) {
		t.Parallel()
		assert.False(t, MatchContext(deployed, "0x6080ffee4000"))
	})

	t.Run("constructor arguments", func(t *testing.T) {
		t.Parallel()
		assert.True(t, MatchContext(constructor, "0x6080604052"))
		assert.True(t, MatchContext(constructor, "0x6080604052"+strings.Repeat("00", 32)))
		assert.True(t, MatchContext(constructor, "0x6080604052"+strings.Repeat("00", 64)))
	})

	t.Run("constructor partial word", func(t *testing.T) {
		t.Parallel()
		assert.False(t, MatchContext(constructor, "0x6080604052"+strings.Repeat("00", 31)))
		assert.False(t, MatchContext(constructor, "0x60806040"))
	})
}

func TestFindContext(t *testing.T) {

	t.Parallel()

	base := &Context{
		Context:                 "0x01",
		Binary:                  "0x6080",
		ContractID:              "Base",
		ContractName:            "Base",
		CompilationID:           "c1",
		LinearizedBaseContracts: []string{"Base"},
	}
	derived := &Context{
		Context:                 "0x02",
		Binary:                  "0x6080",
		ContractID:              "Derived",
		ContractName:            "Derived",
		CompilationID:           "c1",
		LinearizedBaseContracts: []string{"Derived", "Base"},
	}
	other := &Context{
		Context:                 "0x03",
		Binary:                  "0x6081",
		ContractID:              "Other",
		ContractName:            "Other",
		CompilationID:           "c1",
		LinearizedBaseContracts: []string{"Other"},
	}

	contexts := NewContexts(base, derived, other)

	t.Run("derived preferred", func(t *testing.T) {
		t.Parallel()

		for i := 0; i < 10; i++ {
			assert.Same(t, derived, FindContext(contexts, "0x6080"))
		}
	})

	t.Run("single", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, other, FindContext(contexts, "0x6081"))
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, FindContext(contexts, "0x6082"))
		assert.Nil(t, FindContext(nil, "0x6080"))
	})

	t.Run("other compilation", func(t *testing.T) {
		t.Parallel()

		copied := *base
		copied.Context = "0x00"
		copied.CompilationID = "c2"

		// The base of another compilation is not an ancestor,
		// so both contexts are candidates
		context := FindContext(NewContexts(&copied, derived), "0x6080")
		require.NotNil(t, context)
		assert.True(t, context == &copied || context == derived)
	})
}

func TestNormalizeContexts(t *testing.T) {

	t.Parallel()

	t.Run("link placeholders", func(t *testing.T) {
		t.Parallel()

		longName := "VeryLongLibraryNameThatIsTruncated0123456789"
		placeholder := linkPlaceholder(longName)
		require.Len(t, placeholder, 40)

		shortPlaceholder := "__$" + strings.Repeat("a", 34) + "$__"
		require.Len(t, shortPlaceholder, 40)

		context := &Context{
			Context: "0x01",
			Binary:  "0x73" + placeholder + "60" + shortPlaceholder,
			LinkReferences: []compilation.LinkReference{
				{Name: longName, Offsets: []uint64{1}, Length: 20},
			},
		}

		normalized := NormalizeContexts(NewContexts(context))["0x01"]
		wildcard := strings.Repeat(".", 40)
		assert.Equal(t, "0x73"+wildcard+"60"+wildcard, normalized.Binary)

		// The input is not modified
		assert.Equal(t, "0x73"+placeholder+"60"+shortPlaceholder, context.Binary)
	})

	t.Run("library guard", func(t *testing.T) {
		t.Parallel()

		binary := "0x73" + strings.Repeat("00", 20) + "3014"
		library := &Context{
			Context:      "0x01",
			Binary:       binary,
			ContractKind: compilation.ContractKindLibrary,
		}
		libraryConstructor := &Context{
			Context:       "0x02",
			Binary:        binary,
			ContractKind:  compilation.ContractKindLibrary,
			IsConstructor: true,
		}
		contract := &Context{
			Context:      "0x03",
			Binary:       binary,
			ContractKind: compilation.ContractKindContract,
		}

		normalized := NormalizeContexts(NewContexts(library, libraryConstructor, contract))

		assert.Equal(t, "0x73"+strings.Repeat(".", 40)+"3014", normalized["0x01"].Binary)
		assert.Equal(t, binary, normalized["0x02"].Binary)
		assert.Equal(t, binary, normalized["0x03"].Binary)

		deployed := "0x73" + strings.Repeat("ab", 20) + "3014"
		assert.Same(t, normalized["0x01"], FindContext(normalized, deployed))
	})

	t.Run("immutables", func(t *testing.T) {
		t.Parallel()

		context := &Context{
			Context: "0x01",
			Binary:  "0x" + strings.Repeat("11", 8),
			ImmutableReferences: map[string][]compilation.Span{
				"7": {
					{Start: 1, Length: 2},
					{Start: 5, Length: 1},
				},
			},
		}
		constructor := *context
		constructor.Context = "0x02"
		constructor.IsConstructor = true

		normalized := NormalizeContexts(NewContexts(context, &constructor))

		assert.Equal(t, "0x11....1111..1111", normalized["0x01"].Binary)
		assert.Equal(t, context.Binary, normalized["0x02"].Binary)
	})

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()

		childMetadata := metadataHex(t, 0xaa)
		parentMetadata := metadataHex(t, 0xbb)

		child := &Context{
			Context:       "0x01",
			Binary:        "0x6080" + childMetadata,
			IsConstructor: true,
		}
		// The parent creates the child, so it contains the child's creation code
		parent := &Context{
			Context: "0x02",
			Binary:  "0x6080" + childMetadata + "fe" + parentMetadata,
		}

		normalized := NormalizeContexts(NewContexts(child, parent))

		length := len(childMetadata) - 4
		childWildcard := strings.Repeat(".", length) + childMetadata[length:]
		parentWildcard := strings.Repeat(".", length) + parentMetadata[length:]

		assert.Equal(t, "0x6080"+childWildcard, normalized["0x01"].Binary)
		assert.Equal(t, "0x6080"+childWildcard+"fe"+parentWildcard, normalized["0x02"].Binary)

		deployed := "0x6080" + metadataHex(t, 0x01) + "fe" + metadataHex(t, 0x02)
		assert.Same(t, normalized["0x02"], FindContext(normalized, deployed))
	})

	t.Run("uppercase metadata", func(t *testing.T) {
		t.Parallel()

		childMetadata := metadataHex(t, 0xaa)

		child := &Context{
			Context:       "0x01",
			Binary:        "0x6080" + strings.ToUpper(childMetadata),
			IsConstructor: true,
		}
		parent := &Context{
			Context: "0x02",
			Binary:  "0x6080" + childMetadata + "FE",
		}

		normalized := NormalizeContexts(NewContexts(child, parent))

		length := len(childMetadata) - 4
		childWildcard := strings.Repeat(".", length) + childMetadata[length:]

		assert.Equal(t, "0x6080"+childWildcard, normalized["0x01"].Binary)
		assert.Equal(t, "0x6080"+childWildcard+"fe", normalized["0x02"].Binary)

		deployed := "0x6080" + strings.ToUpper(metadataHex(t, 0x01))
		assert.Same(t, normalized["0x01"], FindContext(normalized, deployed))
	})

	t.Run("not metadata", func(t *testing.T) {
		t.Parallel()

		encoded, err := cbor.Marshal(map[string]any{"other": []byte{1, 2}})
		require.NoError(t, err)

		binary := "0x6080" + hex.EncodeToString(encoded) +
			hex.EncodeToString([]byte{0, byte(len(encoded))})

		context := &Context{
			Context: "0x01",
			Binary:  binary,
		}

		normalized := NormalizeContexts(NewContexts(context))
		assert.Equal(t, binary, normalized["0x01"].Binary)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		context := &Context{
			Context:      "0x01",
			Binary:       "0x73" + strings.Repeat("00", 20) + "__$" + strings.Repeat("b", 34) + "$__" + metadataHex(t, 0xcc),
			ContractKind: compilation.ContractKindLibrary,
			ImmutableReferences: map[string][]compilation.Span{
				"1": {{Start: 21, Length: 1}},
			},
		}

		once := NormalizeContexts(NewContexts(context))
		twice := NormalizeContexts(once)
		common_utils.AssertEqualWithDiff(t, once, twice)
	})
}

func TestExtractCBOR(t *testing.T) {

	t.Parallel()

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()

		metadata := metadataHex(t, 0x11)
		segment, ok := ExtractCBOR("0x6080" + metadata)
		require.True(t, ok)
		assert.Equal(t, metadata[:len(metadata)-4], hex.EncodeToString(segment))
		assert.True(t, isSolidityMetadata(segment))
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()

		_, ok := ExtractCBOR("0x00ff")
		assert.False(t, ok)

		_, ok = ExtractCBOR("0x")
		assert.False(t, ok)
	})

	t.Run("wildcards", func(t *testing.T) {
		t.Parallel()

		_, ok := ExtractCBOR("0x....0002")
		assert.False(t, ok)
	})
}

func TestFromContract(t *testing.T) {

	t.Parallel()

	contract := &compilation.Contract{
		ID:                      "C",
		Name:                    "C",
		Kind:                    compilation.ContractKindContract,
		CompilationID:           "c1",
		LinearizedBaseContracts: []string{"C"},
		Bytecode:                compilation.Bytecode{Binary: "0x6080604052"},
		DeployedBytecode:        compilation.Bytecode{Binary: "6080"},
		Payable:                 true,
	}

	contexts := FromContract(contract)
	require.Len(t, contexts, 2)

	assert.True(t, contexts[0].IsConstructor)
	assert.Equal(t, "0x6080604052", contexts[0].Binary)
	assert.False(t, contexts[1].IsConstructor)
	assert.Equal(t, "0x6080", contexts[1].Binary)
	assert.NotEqual(t, contexts[0].Context, contexts[1].Context)

	contractType := contexts[1].ContractType()
	assert.Equal(t, "C", contractType.TypeID)
	assert.True(t, contractType.Payable)

	interfaceContract := &compilation.Contract{
		ID:   "I",
		Kind: compilation.ContractKindInterface,
	}
	assert.Empty(t, FromContract(interfaceContract))
}
