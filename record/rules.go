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

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Custom tags registered with the rule engine.
const (
	tagHexDigits = "hexdigits"
	tagUTF8      = "utf8text"
	tagExclusive = "exclusive"
)

// ruleKinds maps the Go field names of the drafts to the kind reported when
// one of their rules fails.
var ruleKinds = map[string]Kind{
	"Sender":            InvalidAddress,
	"Recipient":         InvalidAddress,
	"Amount":            InvalidAmount,
	"Signature":         InvalidSignature,
	"Timestamp":         InvalidTimestamp,
	"Memo":              InvalidMemo,
	"Transactions":      InvalidTransactionList,
	"PreviousBlockhash": InvalidHeaderField,
	"ValidatorAddress":  InvalidHeaderField,
}

func newRuleEngine(cfg Config) *validator.Validate {

	v := validator.New()

	// Report fields under their external names, so errors read the same for
	// untyped and typed input.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty or reserved tag names.
	_ = v.RegisterValidation(tagHexDigits, hexDigits(cfg.HexDigits))
	_ = v.RegisterValidation(tagUTF8, validUTF8)

	v.RegisterStructValidation(blockDraftValidator, BlockDraft{})

	return v
}

func hexDigits(enabled bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if !enabled {
			return true
		}
		for _, c := range fl.Field().String() {
			switch {
			case c >= '0' && c <= '9':
			case c >= 'a' && c <= 'f':
			case c >= 'A' && c <= 'F':
			default:
				return false
			}
		}
		return true
	}
}

func validUTF8(fl validator.FieldLevel) bool {
	return utf8.ValidString(fl.Field().String())
}

func blockDraftValidator(sl validator.StructLevel) {
	draft := sl.Current().Interface().(BlockDraft)
	if draft.Transactions != nil && len(draft.Payloads) > 0 {
		sl.ReportError(draft.Transactions, FieldTransactions, "Transactions", tagExclusive, "")
	}
}

// applyRules runs the tag and struct rules on a draft. Errors come back in
// field declaration order, which is the fail-fast order of the checks.
func (v *Validator) applyRules(draft interface{}) []*Error {

	err := v.rules.Struct(draft)
	if err == nil {
		return nil
	}

	// InvalidValidationError is only returned when something other than a
	// struct is passed, which would be a programming error on our side.
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*Error{malformed("could not apply rules", err)}
	}

	errs := make([]*Error, 0, len(verrs))
	for _, ferr := range verrs {
		kind, ok := ruleKinds[ferr.StructField()]
		if !ok {
			kind = MalformedEncoding
		}
		errs = append(errs, fieldError(kind, ferr.Field(), describeRule(ferr)))
	}

	return errs
}

func describeRule(ferr validator.FieldError) string {
	switch ferr.Tag() {
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", ferr.Param())
	case "gt":
		return "must be a positive integer"
	case tagHexDigits:
		return "must only contain hexadecimal digits"
	case tagUTF8:
		return "must be valid UTF-8 text"
	case tagExclusive:
		return "must not mix typed and opaque transactions"
	default:
		return fmt.Sprintf("failed rule %s", ferr.Tag())
	}
}
