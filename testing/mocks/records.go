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

package mocks

import (
	"testing"

	"github.com/optakt/arcane/record"
)

type Records struct {
	EncodeTransactionFunc func(tx record.Transaction) []byte
	EncodeBlockFunc       func(block record.Block) []byte
	DecodeTransactionFunc func(data []byte) (record.Transaction, error)
	DecodeBlockFunc       func(data []byte) (record.Block, error)
	TransactionIDFunc     func(tx record.Transaction) record.Identifier
	BlockIDFunc           func(block record.Block) record.Identifier
}

func BaselineRecords(t *testing.T) *Records {
	t.Helper()

	r := Records{
		EncodeTransactionFunc: func(record.Transaction) []byte {
			return GenericBytes
		},
		EncodeBlockFunc: func(record.Block) []byte {
			return GenericBytes
		},
		DecodeTransactionFunc: func([]byte) (record.Transaction, error) {
			return GenericTransaction(t, 0), nil
		},
		DecodeBlockFunc: func([]byte) (record.Block, error) {
			return GenericBlock(t, 1), nil
		},
		TransactionIDFunc: func(record.Transaction) record.Identifier {
			return GenericIdentifier(0)
		},
		BlockIDFunc: func(record.Block) record.Identifier {
			return GenericIdentifier(1)
		},
	}

	return &r
}

func (r *Records) EncodeTransaction(tx record.Transaction) []byte {
	return r.EncodeTransactionFunc(tx)
}

func (r *Records) EncodeBlock(block record.Block) []byte {
	return r.EncodeBlockFunc(block)
}

func (r *Records) DecodeTransaction(data []byte) (record.Transaction, error) {
	return r.DecodeTransactionFunc(data)
}

func (r *Records) DecodeBlock(data []byte) (record.Block, error) {
	return r.DecodeBlockFunc(data)
}

func (r *Records) TransactionID(tx record.Transaction) record.Identifier {
	return r.TransactionIDFunc(tx)
}

func (r *Records) BlockID(block record.Block) record.Identifier {
	return r.BlockIDFunc(block)
}
