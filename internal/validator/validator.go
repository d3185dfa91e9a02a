package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLookup reports whether a snapshot for the given date is already stored.
type DateLookup interface {
	ExistsByDate(ctx context.Context, date time.Time) (bool, error)
}

// RecordError describes why an entry was rejected.
type RecordError struct {
	Key      string
	Date     string
	Currency string
	Reason   string
}

func (e *RecordError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "record %q", e.Key)
	if e.Date != "" {
		fmt.Fprintf(&b, " (date %s)", e.Date)
	}
	if e.Currency != "" {
		fmt.Fprintf(&b, " currency %s", e.Currency)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *RecordError) Unwrap() error {
	return model.ErrValidation
}

type Result struct {
	Valid    []model.CurrencyObject
	Rejected []*RecordError
}

// Validator turns add payload entries into CurrencyObjects. With a non-nil
// lookup it also rejects dates that are already stored.
type Validator struct {
	lookup DateLookup
}

func New(lookup DateLookup) *Validator {
	return &Validator{lookup: lookup}
}

type rawRecord struct {
	Date         json.RawMessage `json:"Date"`
	CurrencyCode json.RawMessage `json:"CurrencyCode"`
}

type rawRatePair struct {
	AUDPerUnit  json.RawMessage `json:"AUDPerUnit"`
	UnitsPerAUD json.RawMessage `json:"UnitsPerAUD"`
}

// Validate processes entries in order. The returned error is non-nil only
// when the date lookup itself fails.
func (v *Validator) Validate(ctx context.Context, entries []Entry) (Result, error) {
	var result Result
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		raw, date, recErr := decodeRecord(entry)
		if recErr != nil {
			result.Rejected = append(result.Rejected, recErr)
			continue
		}

		dateKey := date.Format(time.DateOnly)
		if _, dup := seen[dateKey]; dup {
			result.Rejected = append(result.Rejected, &RecordError{
				Key:    entry.Key,
				Date:   dateKey,
				Reason: "date appears more than once in the payload",
			})
			continue
		}
		if v.lookup != nil {
			exists, err := v.lookup.ExistsByDate(ctx, date)
			if err != nil {
				return Result{}, err
			}
			if exists {
				result.Rejected = append(result.Rejected, &RecordError{
					Key:    entry.Key,
					Date:   dateKey,
					Reason: "date is already in the database",
				})
				continue
			}
		}

		rates, recErr := normalizeRates(entry.Key, dateKey, raw.CurrencyCode)
		if recErr != nil {
			result.Rejected = append(result.Rejected, recErr)
			continue
		}

		seen[dateKey] = struct{}{}
		result.Valid = append(result.Valid, model.CurrencyObject{Date: date, Rates: rates})
	}

	return result, nil
}

func decodeRecord(entry Entry) (rawRecord, time.Time, *RecordError) {
	var raw rawRecord
	if err := json.Unmarshal(entry.Raw, &raw); err != nil {
		return rawRecord{}, time.Time{}, &RecordError{Key: entry.Key, Reason: "record is not an object"}
	}
	if isMissing(raw.Date) {
		return rawRecord{}, time.Time{}, &RecordError{Key: entry.Key, Reason: "missing date"}
	}

	var dateStr string
	if err := json.Unmarshal(raw.Date, &dateStr); err != nil {
		return rawRecord{}, time.Time{}, &RecordError{Key: entry.Key, Reason: "date must be a string"}
	}
	date, err := model.ParseDate(strings.TrimSpace(dateStr))
	if err != nil {
		return rawRecord{}, time.Time{}, &RecordError{Key: entry.Key, Date: dateStr, Reason: "unparseable date"}
	}
	return raw, date, nil
}

func normalizeRates(key, date string, raw json.RawMessage) (map[string]model.RatePair, *RecordError) {
	if isMissing(raw) {
		return nil, &RecordError{Key: key, Date: date, Reason: "missing currency codes"}
	}
	var codes map[string]json.RawMessage
	if err := json.Unmarshal(raw, &codes); err != nil {
		return nil, &RecordError{Key: key, Date: date, Reason: "currency codes must be an object"}
	}

	names := make([]string, 0, len(codes))
	for code := range codes {
		names = append(names, code)
	}
	sort.Strings(names)

	rates := make(map[string]model.RatePair, len(codes))
	for _, code := range names {
		rawPair := codes[code]
		if reason := checkCode(code); reason != "" {
			return nil, &RecordError{Key: key, Date: date, Currency: code, Reason: reason}
		}

		var pair rawRatePair
		if err := json.Unmarshal(rawPair, &pair); err != nil {
			return nil, &RecordError{Key: key, Date: date, Currency: code, Reason: "rate pair must be an object"}
		}
		audPerUnit, reason := parseRate("AUDPerUnit", pair.AUDPerUnit)
		if reason != "" {
			return nil, &RecordError{Key: key, Date: date, Currency: code, Reason: reason}
		}
		unitsPerAUD, reason := parseRate("UnitsPerAUD", pair.UnitsPerAUD)
		if reason != "" {
			return nil, &RecordError{Key: key, Date: date, Currency: code, Reason: reason}
		}
		rates[code] = model.RatePair{AUDPerUnit: audPerUnit, UnitsPerAUD: unitsPerAUD}
	}

	if len(rates) == 0 {
		return nil, &RecordError{Key: key, Date: date, Reason: "no currency entries"}
	}
	return rates, nil
}

// parseRate accepts a JSON number or a numeric string and keeps its digits
// exactly as written.
func parseRate(field string, raw json.RawMessage) (primitive.Decimal128, string) {
	if isMissing(raw) {
		return primitive.Decimal128{}, "missing " + field
	}

	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return primitive.Decimal128{}, field + " is not numeric"
		}
		text = strings.TrimSpace(s)
	}

	if _, err := decimal.NewFromString(text); err != nil {
		return primitive.Decimal128{}, field + " is not numeric"
	}
	d, err := primitive.ParseDecimal128(text)
	if err != nil {
		return primitive.Decimal128{}, field + " is out of range"
	}
	return d, ""
}

func checkCode(code string) string {
	switch {
	case strings.TrimSpace(code) == "":
		return "empty currency code"
	case strings.Contains(code, "."):
		return "currency code must not contain '.'"
	case strings.HasPrefix(code, "$"):
		return "currency code must not start with '$'"
	}
	return ""
}

func isMissing(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
