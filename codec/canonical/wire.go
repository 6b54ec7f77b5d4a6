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

package canonical

import (
	"github.com/optakt/arcane/record"
)

// Record kinds, always the first element of an encoded record.
const (
	KindTransaction     = uint64(1)
	KindStrictBlock     = uint64(2)
	KindPermissiveBlock = uint64(3)
	KindSigningPayload  = uint64(4)
)

type transactionWire struct {
	_         struct{} `cbor:",toarray"`
	Kind      uint64
	Sender    string
	Recipient string
	Amount    uint64
	Signature string
	Timestamp uint64
	Memo      string
}

// transactionBody is a transaction nested in a strict block, without kind.
type transactionBody struct {
	_         struct{} `cbor:",toarray"`
	Sender    string
	Recipient string
	Amount    uint64
	Signature string
	Timestamp uint64
	Memo      string
}

type signingWire struct {
	_         struct{} `cbor:",toarray"`
	Kind      uint64
	Sender    string
	Recipient string
	Amount    uint64
	Timestamp uint64
	Memo      string
}

type strictBlockWire struct {
	_                 struct{} `cbor:",toarray"`
	Kind              uint64
	Transactions      []transactionBody
	ParentSlot        uint64
	PreviousBlockhash string
	Timestamp         int64
	ValidatorAddress  string
	PoHInformation    []record.Entry
}

type permissiveBlockWire struct {
	_                 struct{} `cbor:",toarray"`
	Kind              uint64
	Transactions      []record.Entry
	ParentSlot        uint64
	PreviousBlockhash string
	Timestamp         int64
	ValidatorAddress  string
	PoHInformation    []record.Entry
}

func fromTransaction(tx record.Transaction) transactionWire {
	w := transactionWire{
		Kind:      KindTransaction,
		Sender:    tx.Sender(),
		Recipient: tx.Recipient(),
		Amount:    tx.Amount(),
		Signature: tx.Signature(),
		Timestamp: tx.Timestamp(),
		Memo:      tx.Memo(),
	}
	return w
}

func (w transactionWire) draft() record.TransactionDraft {
	d := record.TransactionDraft{
		Sender:    w.Sender,
		Recipient: w.Recipient,
		Amount:    w.Amount,
		Signature: w.Signature,
		Timestamp: w.Timestamp,
		Memo:      w.Memo,
	}
	return d
}

func fromBlock(b record.Block) interface{} {

	if b.Mode() == record.ModePermissive {
		w := permissiveBlockWire{
			Kind:              KindPermissiveBlock,
			Transactions:      b.Payloads(),
			ParentSlot:        b.ParentSlot(),
			PreviousBlockhash: b.PreviousBlockhash(),
			Timestamp:         b.Timestamp(),
			ValidatorAddress:  b.ValidatorAddress(),
			PoHInformation:    b.PoHInformation(),
		}
		return w
	}

	transactions := b.Transactions()
	bodies := make([]transactionBody, 0, len(transactions))
	for _, tx := range transactions {
		body := transactionBody{
			Sender:    tx.Sender(),
			Recipient: tx.Recipient(),
			Amount:    tx.Amount(),
			Signature: tx.Signature(),
			Timestamp: tx.Timestamp(),
			Memo:      tx.Memo(),
		}
		bodies = append(bodies, body)
	}

	w := strictBlockWire{
		Kind:              KindStrictBlock,
		Transactions:      bodies,
		ParentSlot:        b.ParentSlot(),
		PreviousBlockhash: b.PreviousBlockhash(),
		Timestamp:         b.Timestamp(),
		ValidatorAddress:  b.ValidatorAddress(),
		PoHInformation:    b.PoHInformation(),
	}

	return w
}

func (w strictBlockWire) draft() record.BlockDraft {
	transactions := make([]record.TransactionDraft, 0, len(w.Transactions))
	for _, body := range w.Transactions {
		tx := record.TransactionDraft{
			Sender:    body.Sender,
			Recipient: body.Recipient,
			Amount:    body.Amount,
			Signature: body.Signature,
			Timestamp: body.Timestamp,
			Memo:      body.Memo,
		}
		transactions = append(transactions, tx)
	}
	d := record.BlockDraft{
		Transactions:      transactions,
		ParentSlot:        w.ParentSlot,
		PreviousBlockhash: w.PreviousBlockhash,
		Timestamp:         w.Timestamp,
		ValidatorAddress:  w.ValidatorAddress,
		PoHInformation:    w.PoHInformation,
	}
	return d
}

func (w permissiveBlockWire) draft() record.BlockDraft {
	d := record.BlockDraft{
		Payloads:          w.Transactions,
		ParentSlot:        w.ParentSlot,
		PreviousBlockhash: w.PreviousBlockhash,
		Timestamp:         w.Timestamp,
		ValidatorAddress:  w.ValidatorAddress,
		PoHInformation:    w.PoHInformation,
	}
	return d
}
