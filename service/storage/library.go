// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package storage

import (
	"github.com/optakt/arcane/record"
)

// Codec compresses encoded records and encodes the auxiliary values stored
// alongside them.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(compressed []byte) ([]byte, error)
	Marshal(value interface{}) ([]byte, error)
	Unmarshal(compressed []byte, value interface{}) error
}

// Records converts records to and from their canonical encoding.
type Records interface {
	EncodeTransaction(tx record.Transaction) []byte
	EncodeBlock(block record.Block) []byte
	DecodeTransaction(data []byte) (record.Transaction, error)
	DecodeBlock(data []byte) (record.Block, error)
	TransactionID(tx record.Transaction) record.Identifier
	BlockID(block record.Block) record.Identifier
}

// Library is the storage library.
type Library struct {
	codec   Codec
	records Records
}

// New returns a new storage library using the given codecs. Records are
// stored in their canonical encoding and validated again when retrieved.
func New(codec Codec, records Records) *Library {
	lib := Library{
		codec:   codec,
		records: records,
	}

	return &lib
}
