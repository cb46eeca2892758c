package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/rates"
)

// SettingsService exposes the admin-editable rates.
type SettingsService struct {
	rates *rates.Resolver
}

func NewSettingsService(r *rates.Resolver) *SettingsService {
	return &SettingsService{rates: r}
}

func (s *SettingsService) current(ctx context.Context) *connect.Response[RatesResponse] {
	r := s.rates.Resolve(ctx)
	return connect.NewResponse(&RatesResponse{
		MealRate:      money(r.MealRate),
		UtilityCharge: money(r.UtilityCharge),
	})
}

// GetRates returns the rates the next billing run would use.
func (s *SettingsService) GetRates(ctx context.Context, req *connect.Request[GetRatesRequest]) (*connect.Response[RatesResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.current(ctx), nil
}

// SaveRates overrides both rates. Existing bills keep their stored amounts.
func (s *SettingsService) SaveRates(ctx context.Context, req *connect.Request[SaveRatesRequest]) (*connect.Response[RatesResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if err := s.rates.Update(ctx, models.SettingMealRate, req.Msg.MealRate); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.rates.Update(ctx, models.SettingUtilityCharge, req.Msg.UtilityCharge); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Rates updated",
		"meal_rate", req.Msg.MealRate,
		"utility_charge", req.Msg.UtilityCharge,
		"member_id", middleware.GetMemberID(ctx),
	)
	return s.current(ctx), nil
}
