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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
)

const (
	tracingStorageRequest = "request.storage"
	tracingCodeRequest    = "request.code"
)

// OnRecordTraceFunc is a function that records a trace.
type OnRecordTraceFunc func(
	operationName string,
	duration time.Duration,
	attrs []attribute.KeyValue,
)

func (d *Decoder) tracingEnabled() bool {
	return d.info.Options.OnRecordTrace != nil
}

func (d *Decoder) reportStorageRequestTrace(address common.Address, slot common.Hash, duration time.Duration) {
	d.info.Options.OnRecordTrace(
		tracingStorageRequest,
		duration,
		[]attribute.KeyValue{
			attribute.String("address", address.Hex()),
			attribute.String("slot", slot.Hex()),
		},
	)
}

func (d *Decoder) reportCodeRequestTrace(address common.Address, size int, duration time.Duration) {
	d.info.Options.OnRecordTrace(
		tracingCodeRequest,
		duration,
		[]attribute.KeyValue{
			attribute.String("address", address.Hex()),
			attribute.Int("size", size),
		},
	)
}
