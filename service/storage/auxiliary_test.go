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

package storage_test

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/arcane/service/storage"
	"github.com/optakt/arcane/testing/helpers"
)

func TestFallback(t *testing.T) {
	db := helpers.InMemoryDB(t)
	defer db.Close()
	txn := db.NewTransaction(false)
	defer txn.Discard()

	calls := 0
	succeed := func(*badger.Txn) error {
		calls++
		return nil
	}
	fail := func(*badger.Txn) error {
		calls++
		return errors.New("fail")
	}

	tests := []struct {
		name      string
		ops       []func(*badger.Txn) error
		wantCalls int
		wantErrs  int
	}{
		{name: "first op succeeds", ops: []func(*badger.Txn) error{succeed, fail, fail}, wantCalls: 1},
		{name: "later op succeeds", ops: []func(*badger.Txn) error{fail, fail, succeed, fail}, wantCalls: 3},
		{name: "all ops fail", ops: []func(*badger.Txn) error{fail, fail, fail, fail}, wantCalls: 4, wantErrs: 4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			calls = 0

			err := storage.Fallback(test.ops...)(txn)

			assert.Equal(t, test.wantCalls, calls)
			if test.wantErrs == 0 {
				assert.NoError(t, err)
				return
			}
			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))
			assert.Len(t, merr.Errors, test.wantErrs)
		})
	}
}

func TestCombine(t *testing.T) {
	db := helpers.InMemoryDB(t)
	defer db.Close()
	txn := db.NewTransaction(false)
	defer txn.Discard()

	calls := 0
	succeed := func(*badger.Txn) error {
		calls++
		return nil
	}
	fail := func(*badger.Txn) error {
		calls++
		return errors.New("fail")
	}

	tests := []struct {
		name      string
		ops       []func(*badger.Txn) error
		wantCalls int
		wantErr   bool
	}{
		{name: "all ops succeed", ops: []func(*badger.Txn) error{succeed, succeed, succeed}, wantCalls: 3},
		{name: "first op fails", ops: []func(*badger.Txn) error{fail, succeed, succeed}, wantCalls: 1, wantErr: true},
		{name: "last op fails", ops: []func(*badger.Txn) error{succeed, fail}, wantCalls: 2, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			calls = 0

			err := storage.Combine(test.ops...)(txn)

			assert.Equal(t, test.wantCalls, calls)
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
