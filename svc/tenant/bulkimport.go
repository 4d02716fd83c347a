package tenant

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// importHeader is the canonical column order for bulk-import files.
var importHeader = []string{
	"code", "name", "subdomain", "plan_code",
	"admin_email", "contact_name", "contact_email", "contact_phone",
}

// BulkImport provisions one tenant per CSV row. Rows are independent: a
// failed row is collected into the report and the batch continues. Each
// row gets a generated temporary admin password, returned in the report
// for delivery to the school.
func (s *Service) BulkImport(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrBadImportFile, err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	line := 1
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Failures = append(report.Failures, ImportRowError{Line: line, Message: err.Error()})
			continue
		}

		req, code, err := s.rowToRequest(ctx, cols, record)
		if err != nil {
			report.Failures = append(report.Failures, ImportRowError{Line: line, Code: code, Message: err.Error()})
			continue
		}

		result, err := s.Provision(ctx, req)
		if err != nil {
			report.Failures = append(report.Failures, ImportRowError{Line: line, Code: req.Code, Message: err.Error()})
			continue
		}
		report.Created = append(report.Created, *result)
	}
	return report, nil
}

// ImportTemplate returns the CSV template administrators fill in: the
// header row plus one sample row.
func (s *Service) ImportTemplate() []byte {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(importHeader)
	_ = w.Write([]string{
		"DEMO", "Colegio Demo", "demo", "standard",
		"admin@colegiodemo.edu", "María García", "contacto@colegiodemo.edu", "+52 55 0000 0000",
	})
	w.Flush()
	return []byte(b.String())
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"code", "name", "subdomain", "plan_code", "admin_email"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", ErrBadImportFile, required)
		}
	}
	return cols, nil
}

func (s *Service) rowToRequest(ctx context.Context, cols map[string]int, record []string) (CreateTenantRequest, string, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	code := field("code")
	planCode := field("plan_code")
	plan, err := s.store.GetPlanByCode(ctx, planCode)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return CreateTenantRequest{}, code, fmt.Errorf("unknown plan code %q", planCode)
		}
		return CreateTenantRequest{}, code, err
	}

	password, err := s.genPassword()
	if err != nil {
		return CreateTenantRequest{}, code, fmt.Errorf("generating admin password: %w", err)
	}

	return CreateTenantRequest{
		Code:          code,
		Name:          field("name"),
		Subdomain:     field("subdomain"),
		PlanID:        plan.ID,
		AdminEmail:    field("admin_email"),
		AdminPassword: password,
		ContactName:   field("contact_name"),
		ContactEmail:  field("contact_email"),
		ContactPhone:  field("contact_phone"),
	}, code, nil
}
