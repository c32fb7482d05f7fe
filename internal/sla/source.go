package sla

import (
	"context"

	"github.com/campops/campops/internal/hiring"
	"github.com/campops/campops/internal/housing"
	"github.com/campops/campops/internal/maintenance"
)

// RequestSource yields the currently open requests of one type. The
// engine is agnostic to the concrete entity beyond TrackedRequest.
type RequestSource interface {
	ListOpen(ctx context.Context) ([]TrackedRequest, error)
}

// TransferSource adapts the housing store's open transfer requests.
type TransferSource struct {
	Store *housing.Store
}

func (s TransferSource) ListOpen(ctx context.Context) ([]TrackedRequest, error) {
	transfers, err := s.Store.ListOpenTransfers(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make([]TrackedRequest, 0, len(transfers))
	for _, t := range transfers {
		tracked = append(tracked, TrackedRequest{
			ID:          t.ID,
			RequestType: TypeTransfer,
			CreatedAt:   t.CreatedAt,
			Reference:   "employee " + t.EmployeeID,
		})
	}
	return tracked, nil
}

// MaintenanceSource adapts the maintenance store's open requests.
type MaintenanceSource struct {
	Store *maintenance.Store
}

func (s MaintenanceSource) ListOpen(ctx context.Context) ([]TrackedRequest, error) {
	reqs, err := s.Store.ListOpenRequests(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make([]TrackedRequest, 0, len(reqs))
	for _, r := range reqs {
		ref := r.Description
		if len(ref) > 60 {
			ref = ref[:60]
		}
		tracked = append(tracked, TrackedRequest{
			ID:          r.ID,
			RequestType: TypeMaintenance,
			CreatedAt:   r.CreatedAt,
			Reference:   ref,
		})
	}
	return tracked, nil
}

// HiringSource adapts the camp hiring store's non-terminal requests.
type HiringSource struct {
	Store *hiring.Store
}

func (s HiringSource) ListOpen(ctx context.Context) ([]TrackedRequest, error) {
	reqs, err := s.Store.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make([]TrackedRequest, 0, len(reqs))
	for _, r := range reqs {
		tracked = append(tracked, TrackedRequest{
			ID:          r.ID,
			RequestType: TypeCampHiring,
			CreatedAt:   r.CreatedAt,
			Reference:   r.Position,
		})
	}
	return tracked, nil
}

// DefaultSources wires the standard adapters for each tracked type.
func DefaultSources(h *housing.Store, m *maintenance.Store, c *hiring.Store) map[RequestType]RequestSource {
	return map[RequestType]RequestSource{
		TypeTransfer:    TransferSource{Store: h},
		TypeMaintenance: MaintenanceSource{Store: m},
		TypeCampHiring:  HiringSource{Store: c},
	}
}
