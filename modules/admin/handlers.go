package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
	tenantsvc "github.com/gestionescolar/tenancy/svc/tenant"
)

// response is the envelope every admin endpoint returns: a success flag, a
// human-readable message, and the payload when there is one.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, coretenant.ErrTenantNotFound):
		status, msg = http.StatusNotFound, "tenant not found"
	case errors.Is(err, tenantsvc.ErrPlanNotFound):
		status, msg = http.StatusUnprocessableEntity, "license plan not found"
	case errors.Is(err, tenantsvc.ErrInvalidStatusChange):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, tenantsvc.ErrBadImportFile):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		if pe, ok := tenantsvc.AsProvisionError(err); ok {
			msg = pe.Error()
			switch pe.Kind {
			case tenantsvc.KindInvalidRequest, tenantsvc.KindUnknownPlan:
				status = http.StatusUnprocessableEntity
			case tenantsvc.KindDuplicateCode, tenantsvc.KindDuplicateSubdomain:
				status = http.StatusConflict
			default:
				status = http.StatusBadGateway
			}
		}
	}
	writeJSON(w, status, response{Success: false, Message: msg})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func (m *Module) createTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantsvc.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid request body"})
		return
	}

	result, err := m.svc.Provision(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, response{Success: true, Message: "tenant created", Data: result})
}

func (m *Module) listTenants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := tenantsvc.ListFilter{Search: q.Get("search")}
	if st := q.Get("status"); st != "" {
		status := coretenant.Status(st)
		if !status.IsValid() {
			writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "unknown status filter"})
			return
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	result, err := m.svc.List(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: result})
}

func (m *Module) getTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid tenant id"})
		return
	}
	t, err := m.svc.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: t})
}

func (m *Module) updateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid tenant id"})
		return
	}
	var req tenantsvc.UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid request body"})
		return
	}

	t, err := m.svc.Update(r.Context(), id, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "tenant updated", Data: t})
}

type statusRequest struct {
	Status coretenant.Status `json:"status"`
	Reason string            `json:"reason"`
}

func (m *Module) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid tenant id"})
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid request body"})
		return
	}

	t, err := m.svc.ChangeStatus(r.Context(), id, req.Status, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "status changed", Data: t})
}

func (m *Module) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := m.svc.Stats(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: stats})
}

func (m *Module) bulkImport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	report, err := m.svc.BulkImport(r.Context(), r.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "import finished", Data: report})
}

func (m *Module) importTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tenants_import.csv"`)
	_, _ = w.Write(m.svc.ImportTemplate())
}

func (m *Module) auditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "invalid tenant id"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := m.svc.AuditTrail(r.Context(), id, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: entries})
}
