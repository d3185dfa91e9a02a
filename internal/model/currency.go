package model

import (
	"encoding/json"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CurrencyObject is one day's snapshot of AUD exchange rates.
type CurrencyObject struct {
	ID    primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	Date  time.Time           `bson:"Date" json:"Date"`
	Rates map[string]RatePair `bson:"CurrencyCode" json:"CurrencyCode"`
}

// RatePair holds the two reciprocal rates for a currency code. Both values
// are stored as Decimal128 so the digits survive untouched.
type RatePair struct {
	AUDPerUnit  primitive.Decimal128 `bson:"AUDPerUnit"`
	UnitsPerAUD primitive.Decimal128 `bson:"UnitsPerAUD"`
}

type ratePairJSON struct {
	AUDPerUnit  string `json:"AUDPerUnit"`
	UnitsPerAUD string `json:"UnitsPerAUD"`
}

func (p RatePair) MarshalJSON() ([]byte, error) {
	return json.Marshal(ratePairJSON{
		AUDPerUnit:  p.AUDPerUnit.String(),
		UnitsPerAUD: p.UnitsPerAUD.String(),
	})
}

func (p *RatePair) UnmarshalJSON(data []byte) error {
	var raw ratePairJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	audPerUnit, err := primitive.ParseDecimal128(raw.AUDPerUnit)
	if err != nil {
		return err
	}
	unitsPerAUD, err := primitive.ParseDecimal128(raw.UnitsPerAUD)
	if err != nil {
		return err
	}
	p.AUDPerUnit = audPerUnit
	p.UnitsPerAUD = unitsPerAUD
	return nil
}

// Codes returns the currency codes of the snapshot in lexical order.
func (c CurrencyObject) Codes() []string {
	codes := make([]string, 0, len(c.Rates))
	for code := range c.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeDate converts t to UTC and truncates it to midnight. Every path
// that reads or writes the Date field goes through it.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// ParseDate accepts a calendar date or a timestamp and returns the UTC
// midnight of the day it falls on.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
