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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/arcane/codec/canonical"
	"github.com/optakt/arcane/codec/zbor"
	"github.com/optakt/arcane/record"
	"github.com/optakt/arcane/service/storage"
	"github.com/optakt/arcane/testing/helpers"
	"github.com/optakt/arcane/testing/mocks"
)

func TestStore_Block(t *testing.T) {
	db := helpers.InMemoryDB(t)
	defer db.Close()

	validate := record.NewValidator()
	records := canonical.NewCodec(validate)
	values, err := zbor.NewCodec()
	require.NoError(t, err)
	lib := storage.New(values, records)
	s := newStore(db, lib, records)

	tests := []struct {
		slot  uint64
		first uint64
		last  uint64
	}{
		{slot: 50, first: 50, last: 50},
		{slot: 7, first: 7, last: 50},
		{slot: 99, first: 7, last: 99},
		{slot: 60, first: 7, last: 99},
	}

	for _, test := range tests {
		fields := mocks.GenericBlockFields(t, 1)
		fields[record.FieldParentSlot] = test.slot
		block, err := validate.Block(fields)
		require.NoError(t, err)

		err = s.Block(block)
		require.NoError(t, err)

		var first, last uint64
		require.NoError(t, db.View(lib.RetrieveFirst(&first)))
		require.NoError(t, db.View(lib.RetrieveLast(&last)))
		assert.Equal(t, test.first, first, "slot %d", test.slot)
		assert.Equal(t, test.last, last, "slot %d", test.slot)
	}
}

func TestStore_Transaction(t *testing.T) {
	db := helpers.InMemoryDB(t)
	defer db.Close()

	validate := record.NewValidator()
	records := canonical.NewCodec(validate)
	values, err := zbor.NewCodec()
	require.NoError(t, err)
	lib := storage.New(values, records)
	s := newStore(db, lib, records)

	tx := mocks.GenericTransaction(t, 3)
	err = s.Transaction(tx)
	require.NoError(t, err)

	var got record.Transaction
	require.NoError(t, db.View(lib.RetrieveTransaction(records.TransactionID(tx), &got)))
	assert.Equal(t, tx, got)
}
