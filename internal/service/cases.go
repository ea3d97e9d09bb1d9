package service

import (
	"context"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/executor"
)

// CasesService wraps the cases resource with domain helpers.
type CasesService struct {
	*BaseService
}

// NewCasesService builds a service over the cases resource.
func NewCasesService(reg *contract.Registry, role string, exec *executor.Executor) (*CasesService, error) {
	base, err := NewBaseService(reg, role, "cases", exec)
	if err != nil {
		return nil, err
	}
	return &CasesService{BaseService: base}, nil
}

// CreateCase opens a new case. Phone is optional.
func (s *CasesService) CreateCase(ctx context.Context, clientName, clientEmail, clientPhone string) *Result {
	values := map[string]interface{}{
		"client_name":  clientName,
		"client_email": clientEmail,
		"status":       "OPEN",
	}
	if clientPhone != "" {
		values["client_phone"] = clientPhone
	}
	return s.Create(ctx, values)
}

// GetCaseByID fetches one case.
func (s *CasesService) GetCaseByID(ctx context.Context, caseID string) *Result {
	return s.GetByID(ctx, caseID)
}

// GetCasesByClientEmail lists cases belonging to one client.
func (s *CasesService) GetCasesByClientEmail(ctx context.Context, clientEmail string) *Result {
	return s.GetByField(ctx, "client_email", clientEmail, 0)
}

// GetCasesByStatus lists cases in one lifecycle state, newest first.
func (s *CasesService) GetCasesByStatus(ctx context.Context, status string, limit int) *Result {
	return s.Read(ctx, nil,
		[]dsl.WhereClause{{Field: "status", Op: "=", Value: status}},
		[]dsl.OrderByClause{{Field: "created_at", Dir: "desc"}},
		limit, 0)
}

// GetRecentCases lists the newest cases.
func (s *CasesService) GetRecentCases(ctx context.Context, limit int) *Result {
	return s.Read(ctx, nil, nil,
		[]dsl.OrderByClause{{Field: "created_at", Dir: "desc"}},
		limit, 0)
}

// UpdateCaseStatus moves a case to a new lifecycle state. No transition
// rules apply: any allowed enum value can follow any other.
func (s *CasesService) UpdateCaseStatus(ctx context.Context, caseID, status string) *Result {
	return s.Update(ctx, caseID, map[string]interface{}{"status": status})
}

// UpdateClientInfo changes client contact details on a case. Empty values
// are left untouched.
func (s *CasesService) UpdateClientInfo(ctx context.Context, caseID string, name, email, phone string) *Result {
	data := map[string]interface{}{}
	if name != "" {
		data["client_name"] = name
	}
	if email != "" {
		data["client_email"] = email
	}
	if phone != "" {
		data["client_phone"] = phone
	}
	return s.Update(ctx, caseID, data)
}

// ListCases pages through all cases, newest first.
func (s *CasesService) ListCases(ctx context.Context, limit, offset int) *Result {
	return s.Read(ctx, nil, nil,
		[]dsl.OrderByClause{{Field: "created_at", Dir: "desc"}},
		limit, offset)
}
