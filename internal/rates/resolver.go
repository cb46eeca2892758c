// Package rates resolves the per-meal rate and monthly utility charge,
// preferring admin-edited overrides over compiled defaults.
package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

// Compiled defaults, in currency units.
var (
	DefaultMealRate      = decimal.RequireFromString("200.00")
	DefaultUtilityCharge = decimal.RequireFromString("150.00")
)

var (
	ErrUnknownKey  = errors.New("unknown rate setting")
	ErrInvalidRate = errors.New("rate must be a non-negative decimal")
)

// Rates are the amounts applied to one billing run.
type Rates struct {
	MealRate      decimal.Decimal
	UtilityCharge decimal.Decimal
}

// Resolver reads rate overrides from a SettingStore.
type Resolver struct {
	store storage.SettingStore
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store storage.SettingStore) *Resolver {
	return &Resolver{store: store}
}

// ParseOrDefault parses value as a non-negative decimal.
// Empty, unparsable or negative input yields def and false. It never fails.
func ParseOrDefault(value string, def decimal.Decimal) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || d.IsNegative() {
		return def, false
	}
	return d, true
}

// Defaults returns the compiled default for each known key.
func Defaults() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		models.SettingMealRate:      DefaultMealRate,
		models.SettingUtilityCharge: DefaultUtilityCharge,
	}
}

// Resolve returns the current rates. Missing, unreadable or malformed
// overrides fall back to the defaults independently per key.
func (r *Resolver) Resolve(ctx context.Context) Rates {
	return Rates{
		MealRate:      r.lookup(ctx, models.SettingMealRate, DefaultMealRate),
		UtilityCharge: r.lookup(ctx, models.SettingUtilityCharge, DefaultUtilityCharge),
	}
}

func (r *Resolver) lookup(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	raw, ok, err := r.store.GetSetting(ctx, key)
	if err != nil {
		slog.Warn("Rate setting unreadable, using default", "key", key, "default", def.StringFixed(2), "error", err)
		return def
	}
	if !ok {
		return def
	}
	value, parsed := ParseOrDefault(raw, def)
	if !parsed {
		slog.Warn("Rate setting malformed, using default", "key", key, "value", raw, "default", def.StringFixed(2))
	}
	return value
}

// Update validates and stores an override for a known key.
func (r *Resolver) Update(ctx context.Context, key, value string) error {
	if _, known := Defaults()[key]; !known {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	d, ok := ParseOrDefault(value, decimal.Zero)
	if !ok {
		return fmt.Errorf("%w: %s=%q", ErrInvalidRate, key, value)
	}
	return r.store.PutSetting(ctx, key, d.String())
}

// EnsureDefaults stores the compiled default for every key that has no override yet.
func (r *Resolver) EnsureDefaults(ctx context.Context) error {
	for key, def := range Defaults() {
		_, ok, err := r.store.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := r.store.PutSetting(ctx, key, def.StringFixed(2)); err != nil {
			return err
		}
		slog.Info("Seeded rate setting", "key", key, "value", def.StringFixed(2))
	}
	return nil
}
