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

package metrics_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/arcane/codec/canonical"
	"github.com/optakt/arcane/record"
	"github.com/optakt/arcane/service/metrics"
	"github.com/optakt/arcane/testing/mocks"
)

func TestValidator(t *testing.T) {
	reg := prometheus.NewRegistry()
	v := metrics.NewValidator(record.NewValidator(), reg)

	_, err := v.Transaction(mocks.GenericTransactionFields(1)[0])
	require.NoError(t, err)

	invalid := mocks.GenericTransactionFields(1)[0]
	invalid[record.FieldAmount] = 0
	_, err = v.Transaction(invalid)
	require.Error(t, err)
	_, err = v.Transaction(invalid)
	require.Error(t, err)

	_, err = v.Block(mocks.GenericBlockFields(t, 2))
	require.NoError(t, err)

	// Records decoded by the canonical codec are counted as well.
	c := canonical.NewCodec(v)
	_, err = c.DecodeBlock(c.EncodeBlock(mocks.GenericBlock(t, 1)))
	require.NoError(t, err)

	assert.Equal(t, 3, countSeries(t, reg))

	expected := `
# HELP arcane_validated_records_total number of validated records by record type and outcome
# TYPE arcane_validated_records_total counter
arcane_validated_records_total{outcome="accepted",record="block"} 2
arcane_validated_records_total{outcome="accepted",record="transaction"} 1
arcane_validated_records_total{outcome="invalid_amount",record="transaction"} 2
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "arcane_validated_records_total")
	assert.NoError(t, err)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeAccepted, metrics.Outcome(nil))
	assert.Equal(t, metrics.OutcomeUnknown, metrics.Outcome(errors.New("boom")))
	assert.Equal(t, "malformed_encoding", metrics.Outcome(record.Malformed("truncated", nil)))
	assert.Equal(t, "invalid_proof-of-history_information", metrics.Outcome(record.InvalidPoHInformation))
}

func countSeries(t *testing.T, reg *prometheus.Registry) int {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	count := 0
	for _, family := range families {
		count += len(family.GetMetric())
	}

	return count
}
