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

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/optakt/arcane/record"
)

const namespace = "arcane"

// Outcome label values besides the rejection kinds.
const (
	OutcomeAccepted = "accepted"
	OutcomeUnknown  = "unknown"
)

// Validator wraps a record validator and counts accepted and rejected records,
// with rejections labelled by their kind.
type Validator struct {
	*record.Validator
	outcomes *prometheus.CounterVec
}

// NewValidator wraps the given validator and registers its counters.
func NewValidator(validate *record.Validator, reg prometheus.Registerer) *Validator {
	outcomes := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validated_records_total",
		Help:      "number of validated records by record type and outcome",
	}, []string{"record", "outcome"})

	v := Validator{
		Validator: validate,
		outcomes:  outcomes,
	}

	return &v
}

func (v *Validator) Transaction(raw map[string]interface{}) (record.Transaction, error) {
	tx, err := v.Validator.Transaction(raw)
	v.count("transaction", err)
	return tx, err
}

func (v *Validator) CheckTransaction(draft record.TransactionDraft) (record.Transaction, error) {
	tx, err := v.Validator.CheckTransaction(draft)
	v.count("transaction", err)
	return tx, err
}

func (v *Validator) Block(raw map[string]interface{}) (record.Block, error) {
	block, err := v.Validator.Block(raw)
	v.count("block", err)
	return block, err
}

func (v *Validator) CheckBlock(draft record.BlockDraft) (record.Block, error) {
	block, err := v.Validator.CheckBlock(draft)
	v.count("block", err)
	return block, err
}

func (v *Validator) count(name string, err error) {
	v.outcomes.WithLabelValues(name, Outcome(err)).Inc()
}

// Outcome returns the label value describing the result of a validation.
func Outcome(err error) string {
	if err == nil {
		return OutcomeAccepted
	}
	kind, ok := record.KindOf(err)
	if !ok {
		return OutcomeUnknown
	}
	return strings.ReplaceAll(kind.String(), " ", "_")
}
