package validator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"github.com/Lutefd/currency-data/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDateLookup struct {
	mock.Mock
}

func (m *MockDateLookup) ExistsByDate(ctx context.Context, date time.Time) (bool, error) {
	args := m.Called(ctx, date)
	return args.Bool(0), args.Error(1)
}

func entry(key, raw string) validator.Entry {
	return validator.Entry{Key: key, Raw: json.RawMessage(raw)}
}

func TestValidate_SingleRecord(t *testing.T) {
	v := validator.New(nil)

	result, err := v.Validate(context.Background(), []validator.Entry{
		entry("0", `{"Date": "2022-01-01", "CurrencyCode": {"USD": {"AUDPerUnit": "1.30", "UnitsPerAUD": "0.77"}}}`),
	})
	require.NoError(t, err)
	require.Len(t, result.Valid, 1)
	assert.Empty(t, result.Rejected)

	record := result.Valid[0]
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, "1.30", record.Rates["USD"].AUDPerUnit.String())
	assert.Equal(t, "0.77", record.Rates["USD"].UnitsPerAUD.String())
}

func TestValidate_RateForms(t *testing.T) {
	v := validator.New(nil)

	result, err := v.Validate(context.Background(), []validator.Entry{
		entry("0", `{"Date": "2022-01-01", "CurrencyCode": {
			"USD": {"AUDPerUnit": 1.30, "UnitsPerAUD": 0.7692307692307692},
			"JPY": {"AUDPerUnit": " 0.0112 ", "UnitsPerAUD": "89.2857"},
			"EUR": {"AUDPerUnit": "1.5e0", "UnitsPerAUD": 0.66}
		}}`),
	})
	require.NoError(t, err)
	require.Len(t, result.Valid, 1)

	rates := result.Valid[0].Rates
	assert.Equal(t, "1.30", rates["USD"].AUDPerUnit.String())
	assert.Equal(t, "0.7692307692307692", rates["USD"].UnitsPerAUD.String())
	assert.Equal(t, "0.0112", rates["JPY"].AUDPerUnit.String())
	assert.Equal(t, "89.2857", rates["JPY"].UnitsPerAUD.String())
	assert.Equal(t, "0.66", rates["EUR"].UnitsPerAUD.String())
}

func TestValidate_DateNormalization(t *testing.T) {
	v := validator.New(nil)

	tests := []struct {
		name     string
		date     string
		expected time.Time
	}{
		{name: "Calendar date", date: "2022-03-04", expected: time.Date(2022, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "UTC timestamp", date: "2022-03-04T18:45:00Z", expected: time.Date(2022, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "Offset timestamp", date: "2022-03-05T08:00:00+10:00", expected: time.Date(2022, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "Local timestamp", date: "2022-03-04T12:00:00", expected: time.Date(2022, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"Date": "` + tt.date + `", "CurrencyCode": {"USD": {"AUDPerUnit": "1.3", "UnitsPerAUD": "0.77"}}}`
			result, err := v.Validate(context.Background(), []validator.Entry{entry("0", raw)})
			require.NoError(t, err)
			require.Len(t, result.Valid, 1)
			assert.Equal(t, tt.expected, result.Valid[0].Date)
		})
	}
}

func TestValidate_Rejections(t *testing.T) {
	v := validator.New(nil)

	tests := []struct {
		name     string
		raw      string
		reason   string
		currency string
	}{
		{name: "Not an object", raw: `"2022-01-01"`, reason: "record is not an object"},
		{name: "Missing date", raw: `{"CurrencyCode": {"USD": {"AUDPerUnit": "1", "UnitsPerAUD": "1"}}}`, reason: "missing date"},
		{name: "Null date", raw: `{"Date": null, "CurrencyCode": {}}`, reason: "missing date"},
		{name: "Numeric date", raw: `{"Date": 20220101, "CurrencyCode": {}}`, reason: "date must be a string"},
		{name: "Unparseable date", raw: `{"Date": "yesterday", "CurrencyCode": {}}`, reason: "unparseable date"},
		{name: "Missing currency codes", raw: `{"Date": "2022-01-01"}`, reason: "missing currency codes"},
		{name: "Currency codes not an object", raw: `{"Date": "2022-01-01", "CurrencyCode": [1, 2]}`, reason: "currency codes must be an object"},
		{name: "Empty currency codes", raw: `{"Date": "2022-01-01", "CurrencyCode": {}}`, reason: "no currency entries"},
		{
			name:     "Missing UnitsPerAUD",
			raw:      `{"Date": "2022-01-01", "CurrencyCode": {"USD": {"AUDPerUnit": "1.30"}}}`,
			reason:   "missing UnitsPerAUD",
			currency: "USD",
		},
		{
			name:     "Non numeric rate",
			raw:      `{"Date": "2022-01-01", "CurrencyCode": {"USD": {"AUDPerUnit": "abc", "UnitsPerAUD": "0.77"}}}`,
			reason:   "AUDPerUnit is not numeric",
			currency: "USD",
		},
		{
			name:     "Boolean rate",
			raw:      `{"Date": "2022-01-01", "CurrencyCode": {"USD": {"AUDPerUnit": "1.30", "UnitsPerAUD": true}}}`,
			reason:   "UnitsPerAUD is not numeric",
			currency: "USD",
		},
		{
			name:     "Rate pair not an object",
			raw:      `{"Date": "2022-01-01", "CurrencyCode": {"USD": "1.30"}}`,
			reason:   "rate pair must be an object",
			currency: "USD",
		},
		{
			name:     "Dotted currency code",
			raw:      `{"Date": "2022-01-01", "CurrencyCode": {"U.S": {"AUDPerUnit": "1", "UnitsPerAUD": "1"}}}`,
			reason:   "currency code must not contain '.'",
			currency: "U.S",
		},
		{
			name:     "Operator currency code",
			raw:      `{"Date": "2022-01-01", "CurrencyCode": {"$set": {"AUDPerUnit": "1", "UnitsPerAUD": "1"}}}`,
			reason:   "currency code must not start with '$'",
			currency: "$set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Validate(context.Background(), []validator.Entry{entry("k", tt.raw)})
			require.NoError(t, err)
			assert.Empty(t, result.Valid)
			require.Len(t, result.Rejected, 1)

			rejected := result.Rejected[0]
			assert.Equal(t, "k", rejected.Key)
			assert.Equal(t, tt.reason, rejected.Reason)
			assert.Equal(t, tt.currency, rejected.Currency)
			assert.ErrorIs(t, rejected, model.ErrValidation)
		})
	}
}

func TestValidate_OneBadCurrencyRejectsWholeRecord(t *testing.T) {
	v := validator.New(nil)

	result, err := v.Validate(context.Background(), []validator.Entry{
		entry("0", `{"Date": "2022-01-01", "CurrencyCode": {
			"USD": {"AUDPerUnit": "1.30", "UnitsPerAUD": "0.77"},
			"EUR": {"AUDPerUnit": "1.60"}
		}}`),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Valid)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "EUR", result.Rejected[0].Currency)
	assert.Equal(t, `record "0" (date 2022-01-01) currency EUR: missing UnitsPerAUD`, result.Rejected[0].Error())
}

func TestValidate_PartialBatchKeepsOrder(t *testing.T) {
	v := validator.New(nil)
	rates := `"CurrencyCode": {"USD": {"AUDPerUnit": "1.30", "UnitsPerAUD": "0.77"}}`

	result, err := v.Validate(context.Background(), []validator.Entry{
		entry("c", `{"Date": "2022-01-03", `+rates+`}`),
		entry("bad", `{"Date": "not a date", `+rates+`}`),
		entry("a", `{"Date": "2022-01-01", `+rates+`}`),
		entry("dup", `{"Date": "2022-01-03T10:00:00Z", `+rates+`}`),
	})
	require.NoError(t, err)
	require.Len(t, result.Valid, 2)
	assert.Equal(t, 3, result.Valid[0].Date.Day())
	assert.Equal(t, 1, result.Valid[1].Date.Day())

	require.Len(t, result.Rejected, 2)
	assert.Equal(t, "bad", result.Rejected[0].Key)
	assert.Equal(t, "dup", result.Rejected[1].Key)
	assert.Equal(t, "date appears more than once in the payload", result.Rejected[1].Reason)
}

func TestValidate_ExistingDates(t *testing.T) {
	rates := `"CurrencyCode": {"USD": {"AUDPerUnit": "1.30", "UnitsPerAUD": "0.77"}}`
	stored := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Stored date is rejected", func(t *testing.T) {
		lookup := new(MockDateLookup)
		lookup.On("ExistsByDate", mock.Anything, stored).Return(true, nil).Once()
		lookup.On("ExistsByDate", mock.Anything, fresh).Return(false, nil).Once()

		result, err := validator.New(lookup).Validate(context.Background(), []validator.Entry{
			entry("0", `{"Date": "2022-01-01", `+rates+`}`),
			entry("1", `{"Date": "2022-01-02", `+rates+`}`),
		})
		require.NoError(t, err)
		require.Len(t, result.Valid, 1)
		assert.Equal(t, fresh, result.Valid[0].Date)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, "date is already in the database", result.Rejected[0].Reason)
		lookup.AssertExpectations(t)
	})

	t.Run("Invalid date skips the lookup", func(t *testing.T) {
		lookup := new(MockDateLookup)

		result, err := validator.New(lookup).Validate(context.Background(), []validator.Entry{
			entry("0", `{"Date": "bogus", `+rates+`}`),
		})
		require.NoError(t, err)
		assert.Empty(t, result.Valid)
		lookup.AssertNotCalled(t, "ExistsByDate", mock.Anything, mock.Anything)
	})

	t.Run("Lookup failure aborts", func(t *testing.T) {
		lookup := new(MockDateLookup)
		lookup.On("ExistsByDate", mock.Anything, stored).Return(false, errors.New("connection reset")).Once()

		_, err := validator.New(lookup).Validate(context.Background(), []validator.Entry{
			entry("0", `{"Date": "2022-01-01", `+rates+`}`),
		})
		assert.Error(t, err)
	})
}
