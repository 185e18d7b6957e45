package routes

import (
	"net/http"
	"strconv"
)

const auditPageSize = 100

func (routes *Routes) GetAudit(w http.ResponseWriter, r *http.Request) AppError {
	page := auditPage{
		basePage: newBasePage(r, "Audit Log"),
		Enabled:  routes.auditEnabled,
	}
	if routes.auditEnabled {
		limit := auditPageSize
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
			limit = n
		}
		entries, err := routes.audit.ListRecent(r.Context(), limit)
		if err != nil {
			return &ErrInternal{Message: "Failed to load the audit log", Cause: err}
		}
		page.Entries = entries
	}
	routes.tmpls.RenderHTML(w, "audit", page)
	return nil
}
