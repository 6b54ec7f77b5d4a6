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

type Validator struct {
	CheckTransactionFunc func(draft record.TransactionDraft) (record.Transaction, error)
	CheckBlockFunc       func(draft record.BlockDraft) (record.Block, error)
}

func BaselineValidator(t *testing.T) *Validator {
	t.Helper()

	v := Validator{
		CheckTransactionFunc: func(record.TransactionDraft) (record.Transaction, error) {
			return GenericTransaction(t, 0), nil
		},
		CheckBlockFunc: func(record.BlockDraft) (record.Block, error) {
			return GenericBlock(t, 1), nil
		},
	}

	return &v
}

func (v *Validator) CheckTransaction(draft record.TransactionDraft) (record.Transaction, error) {
	return v.CheckTransactionFunc(draft)
}

func (v *Validator) CheckBlock(draft record.BlockDraft) (record.Block, error) {
	return v.CheckBlockFunc(draft)
}
