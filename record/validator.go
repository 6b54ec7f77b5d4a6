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

// Package record holds the Arcane Chain transaction and block records and the
// validator that builds them from untrusted input. Records are immutable: they
// only exist once all of their rules hold.
package record

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// Validator is the only way to construct transactions and blocks. It is safe
// for concurrent use; it holds no state besides its configuration.
type Validator struct {
	cfg   Config
	rules *validator.Validate
}

// NewValidator returns a validator using the default configuration modified by
// the given options.
func NewValidator(opts ...Option) *Validator {

	cfg := DefaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	v := Validator{
		cfg:   cfg,
		rules: newRuleEngine(cfg),
	}

	return &v
}

// Config returns the configuration of the validator.
func (v *Validator) Config() Config {
	return v.cfg
}

// Transaction builds a transaction from untrusted, untyped fields. Checks run
// in the order sender, recipient, amount, signature, timestamp, memo, and the
// first failure is returned.
func (v *Validator) Transaction(raw map[string]interface{}) (Transaction, error) {
	draft, errs := transactionDraft(raw, false)
	if len(errs) == 0 {
		return v.CheckTransaction(draft)
	}

	// A rule can still fail on a field that comes before the one with the
	// wrong type; that failure takes precedence.
	return Transaction{}, earliest(errs[0], v.applyRules(draft), transactionOrder)
}

// CheckTransaction builds a transaction from typed fields.
func (v *Validator) CheckTransaction(draft TransactionDraft) (Transaction, error) {
	errs := v.applyRules(draft)
	if len(errs) > 0 {
		return Transaction{}, errs[0]
	}

	tx := Transaction{
		sender:    draft.Sender,
		recipient: draft.Recipient,
		amount:    draft.Amount,
		signature: draft.Signature,
		timestamp: draft.Timestamp,
		memo:      draft.Memo,
	}

	return tx, nil
}

// Audit reports every violation in untrusted transaction fields instead of only
// the first one. It returns nil if the fields form a valid transaction.
func (v *Validator) Audit(raw map[string]interface{}) error {

	draft, errs := transactionDraft(raw, true)

	// Fields that already failed their type check hold zero values in the
	// draft, so their rule violations would only repeat the same problem.
	failed := make(map[string]struct{}, len(errs))
	for _, err := range errs {
		failed[err.Field] = struct{}{}
	}
	for _, err := range v.applyRules(draft) {
		_, ok := failed[err.Field]
		if ok {
			continue
		}
		errs = append(errs, err)
	}

	sort.SliceStable(errs, func(i int, j int) bool {
		return transactionOrder[errs[i].Field] < transactionOrder[errs[j].Field]
	})

	var result *multierror.Error
	for _, err := range errs {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Block builds a block from untrusted, untyped fields. In strict mode, every
// transaction entry goes through the transaction checks and the first failure
// is returned with its position in the list.
func (v *Validator) Block(raw map[string]interface{}) (Block, error) {

	list, ok := asList(raw[FieldTransactions])
	if !ok {
		return Block{}, fieldError(InvalidTransactionList, FieldTransactions, describe(raw, FieldTransactions, "a list"))
	}

	// All entries must be records before any of them is checked in depth.
	entries := make([]Entry, 0, len(list))
	for index, item := range list {
		m, ok := asRecord(item)
		if !ok {
			return Block{}, entryError(InvalidTransactionEntry, FieldTransactions, index, "must be a key-value record")
		}
		entries = append(entries, Entry(m))
	}

	mode, transactions, payloads, err := v.entries(BlockDraft{Payloads: entries})
	if err != nil {
		return Block{}, err
	}

	draft, herr := headerDraft(raw)
	errs := v.applyRules(draft)
	if herr != nil {
		return Block{}, earliest(herr, errs, headerOrder)
	}
	if len(errs) > 0 {
		return Block{}, errs[0]
	}

	value := raw[FieldPoHInformation]
	if value != nil {
		list, ok := asList(value)
		if !ok {
			return Block{}, fieldError(InvalidPoHInformation, FieldPoHInformation, "must be a list")
		}
		draft.PoHInformation = make([]Entry, 0, len(list))
		for index, item := range list {
			m, ok := asRecord(item)
			if !ok {
				return Block{}, entryError(InvalidPoHInformation, FieldPoHInformation, index, "must be a key-value record")
			}
			draft.PoHInformation = append(draft.PoHInformation, Entry(m))
		}
	}

	poh, err := pohEntries(draft.PoHInformation)
	if err != nil {
		return Block{}, err
	}

	return assemble(mode, transactions, payloads, draft, poh), nil
}

// CheckBlock builds a block from typed fields. A non-nil Transactions list
// always yields a strict block. Otherwise, Payloads are checked as
// transactions in strict mode and kept opaque in permissive mode.
func (v *Validator) CheckBlock(draft BlockDraft) (Block, error) {

	errs := v.applyRules(draft)
	for _, err := range errs {
		if err.Kind == InvalidTransactionList {
			return Block{}, err
		}
	}

	mode, transactions, payloads, err := v.entries(draft)
	if err != nil {
		return Block{}, err
	}

	if len(errs) > 0 {
		return Block{}, errs[0]
	}

	poh, err := pohEntries(draft.PoHInformation)
	if err != nil {
		return Block{}, err
	}

	return assemble(mode, transactions, payloads, draft, poh), nil
}

// entries validates the transaction list of a block draft according to the
// configured mode.
func (v *Validator) entries(draft BlockDraft) (Mode, []Transaction, []Entry, error) {

	if draft.Transactions != nil {
		transactions := make([]Transaction, 0, len(draft.Transactions))
		for index, txDraft := range draft.Transactions {
			tx, err := v.CheckTransaction(txDraft)
			if err != nil {
				return 0, nil, nil, place(err, index)
			}
			transactions = append(transactions, tx)
		}
		return ModeStrict, transactions, nil, nil
	}

	for index, payload := range draft.Payloads {
		if payload == nil {
			return 0, nil, nil, entryError(InvalidTransactionEntry, FieldTransactions, index, "must be a key-value record")
		}
	}

	if v.cfg.Mode == ModeStrict {
		transactions := make([]Transaction, 0, len(draft.Payloads))
		for index, payload := range draft.Payloads {
			tx, err := v.Transaction(payload)
			if err != nil {
				return 0, nil, nil, place(err, index)
			}
			transactions = append(transactions, tx)
		}
		return ModeStrict, transactions, nil, nil
	}

	payloads := make([]Entry, 0, len(draft.Payloads))
	for index, payload := range draft.Payloads {
		entry, err := NormalizeEntry(payload)
		if err != nil {
			return 0, nil, nil, entryError(InvalidTransactionEntry, FieldTransactions, index, err.Error())
		}
		payloads = append(payloads, entry)
	}

	return ModePermissive, nil, payloads, nil
}

func pohEntries(entries []Entry) ([]Entry, error) {
	poh := make([]Entry, 0, len(entries))
	for index, item := range entries {
		entry, err := NormalizeEntry(item)
		if err != nil {
			return nil, entryError(InvalidPoHInformation, FieldPoHInformation, index, err.Error())
		}
		poh = append(poh, entry)
	}
	return poh, nil
}

func assemble(mode Mode, transactions []Transaction, payloads []Entry, draft BlockDraft, poh []Entry) Block {
	b := Block{
		mode:              mode,
		transactions:      transactions,
		payloads:          payloads,
		parentSlot:        draft.ParentSlot,
		previousBlockhash: draft.PreviousBlockhash,
		timestamp:         draft.Timestamp,
		validatorAddress:  draft.ValidatorAddress,
		poh:               poh,
	}
	return b
}

// place positions a transaction error within the block's transaction list.
func place(err error, index int) error {
	var rerr *Error
	if !errors.As(err, &rerr) {
		return fmt.Errorf("could not check transaction (index: %d): %w", index, err)
	}
	return nested(rerr, FieldTransactions, index)
}

// headerDraft performs the type checks on untyped block header fields, in the
// order parent slot, previous blockhash, validator address, timestamp.
func headerDraft(raw map[string]interface{}) (BlockDraft, *Error) {

	var draft BlockDraft
	var ok bool

	draft.ParentSlot, ok = unsigned(raw[FieldParentSlot])
	if !ok {
		return draft, fieldError(InvalidParentSlot, FieldParentSlot, describe(raw, FieldParentSlot, "a non-negative integer"))
	}

	draft.PreviousBlockhash, ok = text(raw[FieldPreviousBlockhash])
	if !ok {
		return draft, fieldError(InvalidHeaderField, FieldPreviousBlockhash, describe(raw, FieldPreviousBlockhash, "text"))
	}

	draft.ValidatorAddress, ok = text(raw[FieldValidatorAddress])
	if !ok {
		return draft, fieldError(InvalidHeaderField, FieldValidatorAddress, describe(raw, FieldValidatorAddress, "text"))
	}

	draft.Timestamp, ok = signedInteger(raw[FieldBlockTimestamp])
	if !ok {
		return draft, fieldError(InvalidTimestamp, FieldBlockTimestamp, describe(raw, FieldBlockTimestamp, "an integer"))
	}

	return draft, nil
}

// transactionDraft performs the type checks on untyped transaction fields. With
// all set, it keeps going after a failure and reports every problem.
func transactionDraft(raw map[string]interface{}, all bool) (TransactionDraft, []*Error) {

	var draft TransactionDraft
	var errs []*Error
	var ok bool

	// fail records the error and tells whether to stop.
	fail := func(err *Error) bool {
		errs = append(errs, err)
		return !all
	}

	draft.Sender, ok = text(raw[FieldSender])
	if !ok && fail(fieldError(InvalidAddress, FieldSender, describe(raw, FieldSender, "text"))) {
		return draft, errs
	}

	draft.Recipient, ok = text(raw[FieldRecipient])
	if !ok && fail(fieldError(InvalidAddress, FieldRecipient, describe(raw, FieldRecipient, "text"))) {
		return draft, errs
	}

	draft.Amount, ok = unsigned(raw[FieldAmount])
	if !ok && fail(fieldError(InvalidAmount, FieldAmount, describe(raw, FieldAmount, "a positive integer"))) {
		return draft, errs
	}

	draft.Signature, ok = text(raw[FieldSignature])
	if !ok && fail(fieldError(InvalidSignature, FieldSignature, describe(raw, FieldSignature, "text"))) {
		return draft, errs
	}

	draft.Timestamp, ok = unsigned(raw[FieldTimestamp])
	if !ok && fail(fieldError(InvalidTimestamp, FieldTimestamp, describe(raw, FieldTimestamp, "a positive integer"))) {
		return draft, errs
	}

	// The memo is optional and defaults to empty text.
	memo, present := raw[FieldMemo]
	if present {
		draft.Memo, ok = text(memo)
		if !ok && fail(fieldError(InvalidMemo, FieldMemo, describe(raw, FieldMemo, "text"))) {
			return draft, errs
		}
	}

	return draft, errs
}

// Positions of the fields in the order they are checked.
var (
	transactionOrder = map[string]int{
		FieldSender:    0,
		FieldRecipient: 1,
		FieldAmount:    2,
		FieldSignature: 3,
		FieldTimestamp: 4,
		FieldMemo:      5,
	}
	headerOrder = map[string]int{
		FieldParentSlot:        0,
		FieldPreviousBlockhash: 1,
		FieldValidatorAddress:  2,
		FieldBlockTimestamp:    3,
	}
)

// earliest returns the rule failure that precedes the type failure, if any.
// Rule failures at or after the type failure are computed on incomplete
// fields and are ignored.
func earliest(typed *Error, rules []*Error, order map[string]int) *Error {
	for _, err := range rules {
		if order[err.Field] < order[typed.Field] {
			return err
		}
	}
	return typed
}

func describe(raw map[string]interface{}, field string, want string) string {
	value, ok := raw[field]
	if !ok {
		return "is missing"
	}
	return fmt.Sprintf("must be %s, got %T", want, value)
}
