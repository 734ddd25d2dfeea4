package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"DocPlatform/internal/cli/model"
)

var (
	ErrCompanyNameRequired = errors.New("company name is required")
	ErrOnboardingRejected  = errors.New("onboarding rejected")
)

// CompanyService регистрирует компании на платформе.
type CompanyService interface {
	Create(ctx context.Context, req model.OnboardingRequest) (model.Company, error)
}

type companyService struct {
	api APIClient
}

func NewCompanyService(client APIClient) CompanyService {
	return &companyService{api: client}
}

// Create отправляет анкету компании. Пустой статус заменяется на Active.
func (s *companyService) Create(ctx context.Context, req model.OnboardingRequest) (model.Company, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.CompanyName == "" {
		return model.Company{}, ErrCompanyNameRequired
	}
	if req.Status == "" {
		req.Status = model.CompanyActive
	}

	var raw json.RawMessage
	if err := s.api.PostJSON(ctx, "/companies/", req, &raw); err != nil {
		if msg, ok := rejection(err); ok {
			return model.Company{}, fmt.Errorf("%w: %s", ErrOnboardingRejected, msg)
		}
		return model.Company{}, fmt.Errorf("onboard %s: %w", req.CompanyName, err)
	}
	var c model.Company
	if err := json.Unmarshal(unwrapData(raw), &c); err != nil {
		return model.Company{}, fmt.Errorf("onboard %s: %w", req.CompanyName, err)
	}
	if c.CompanyName == "" {
		c.CompanyName = req.CompanyName
	}
	return c, nil
}
