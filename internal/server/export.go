package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/contract-extractor/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportHandler struct {
	svc *export.Service
	h   *httpHandler
}

// exportWorkbook serves the rate workbook for ?prefix= (default every
// record) as an attachment.
func (e *exportHandler) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	b, n, err := e.svc.Export(r.Context(), prefix)
	if err != nil {
		e.h.writeError(w, err)
		return
	}
	name := fmt.Sprintf("contracts-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Record-Count", fmt.Sprint(n))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
