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

package record

// External field names of a block.
const (
	FieldTransactions      = "transactions"
	FieldParentSlot        = "parent_slot"
	FieldPreviousBlockhash = "previous_blockhash"
	FieldBlockTimestamp    = "timestamp"
	FieldValidatorAddress  = "validator_address"
	FieldPoHInformation    = "poh_information"
)

// Block is a validated unit of chain history. It owns its transactions and
// proof-of-history entries; accessors hand out copies.
//
// A strict block carries typed transactions, a permissive block carries the
// opaque records it was given. Exactly one of the two lists is in use, as
// reported by Mode.
type Block struct {
	mode              Mode
	transactions      []Transaction
	payloads          []Entry
	parentSlot        uint64
	previousBlockhash string
	timestamp         int64
	validatorAddress  string
	poh               []Entry
}

// Mode is ModeStrict if the block holds typed transactions and ModePermissive
// if it holds opaque payloads.
func (b Block) Mode() Mode {
	return b.mode
}

// Len returns the number of transactions in the block, typed or opaque.
func (b Block) Len() int {
	if b.mode == ModePermissive {
		return len(b.payloads)
	}
	return len(b.transactions)
}

// Transactions returns the typed transactions of a strict block, or nil for a
// permissive block.
func (b Block) Transactions() []Transaction {
	if b.mode != ModeStrict {
		return nil
	}
	transactions := make([]Transaction, len(b.transactions))
	copy(transactions, b.transactions)
	return transactions
}

// Payloads returns the opaque transactions of a permissive block, or nil for a
// strict block.
func (b Block) Payloads() []Entry {
	if b.mode != ModePermissive {
		return nil
	}
	return cloneEntries(b.payloads)
}

// ParentSlot is the slot of the preceding block.
func (b Block) ParentSlot() uint64 {
	return b.parentSlot
}

// PreviousBlockhash is the digest of the parent block.
func (b Block) PreviousBlockhash() string {
	return b.previousBlockhash
}

// Timestamp is the block production time in seconds since the Unix epoch.
func (b Block) Timestamp() int64 {
	return b.timestamp
}

// ValidatorAddress identifies the block producer.
func (b Block) ValidatorAddress() string {
	return b.validatorAddress
}

// PoHInformation returns the proof-of-history entries. It is empty, not nil,
// when none were attached.
func (b Block) PoHInformation() []Entry {
	return cloneEntries(b.poh)
}

// Draft returns the fields of the block as a draft.
func (b Block) Draft() BlockDraft {
	draft := BlockDraft{
		ParentSlot:        b.parentSlot,
		PreviousBlockhash: b.previousBlockhash,
		Timestamp:         b.timestamp,
		ValidatorAddress:  b.validatorAddress,
		PoHInformation:    cloneEntries(b.poh),
	}
	if b.mode == ModePermissive {
		draft.Payloads = cloneEntries(b.payloads)
		return draft
	}
	draft.Transactions = make([]TransactionDraft, 0, len(b.transactions))
	for _, tx := range b.transactions {
		draft.Transactions = append(draft.Transactions, tx.Draft())
	}
	return draft
}

// BlockDraft holds typed block fields that have not been validated yet. At most
// one of Transactions and Payloads may be set.
type BlockDraft struct {
	Transactions      []TransactionDraft `json:"transactions"`
	Payloads          []Entry            `json:"-"`
	ParentSlot        uint64             `json:"parent_slot"`
	PreviousBlockhash string             `json:"previous_blockhash" validate:"utf8text"`
	Timestamp         int64              `json:"timestamp"`
	ValidatorAddress  string             `json:"validator_address" validate:"utf8text"`
	PoHInformation    []Entry            `json:"poh_information"`
}

func cloneEntries(entries []Entry) []Entry {
	dup := make([]Entry, len(entries))
	for i, entry := range entries {
		dup[i] = entry.Clone()
	}
	return dup
}
