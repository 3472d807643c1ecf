// Package pointer has helpers for the optional fields on payment records,
// which are nullable columns in postgres and omitted values in SablePay
// responses.
package pointer

import "time"

// To returns a pointer to a copy of value.
func To[T any](value T) *T {
	return &value
}

// Copy returns a pointer to a copy of *value, or nil.
func Copy[T any](value *T) *T {
	if value == nil {
		return nil
	}
	return To(*value)
}

// OrDefault returns value when set, otherwise a pointer to fallback.
func OrDefault[T any](value *T, fallback T) *T {
	if value != nil {
		return value
	}
	return &fallback
}

// IfValid returns a pointer to value when valid is set, mirroring the
// sql.Null* types.
func IfValid[T any](valid bool, value T) *T {
	if !valid {
		return nil
	}
	return &value
}

func String(value string) *string { return To(value) }
func StringCopy(value *string) *string { return Copy(value) }
func StringOrDefault(value *string, d string) *string { return OrDefault(value, d) }
func StringIfValid(valid bool, value string) *string { return IfValid(valid, value) }

func Time(value time.Time) *time.Time { return To(value) }
func TimeCopy(value *time.Time) *time.Time { return Copy(value) }
func TimeOrDefault(value *time.Time, d time.Time) *time.Time { return OrDefault(value, d) }
func TimeIfValid(valid bool, value time.Time) *time.Time { return IfValid(valid, value) }
