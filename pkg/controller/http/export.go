package http

import (
	"mime"
	"net/http"

	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/errutil"
	"github.com/secmon-lab/cottus/pkg/utils/safe"
)

// exportHandler downloads the company's export document. A copy is archived
// when an archiver is configured; archive failures do not fail the download.
func exportHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := companyFromContext(r.Context())

		doc, err := uc.Export.BuildExport(r.Context(), company.ID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		data, err := uc.Export.Render(doc)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		if _, err := uc.Export.Archive(r.Context(), doc); err != nil {
			errutil.Handle(r.Context(), err, "failed to archive export")
		}

		filename := uc.Export.ExportFileName(doc.Company.Name, doc.ExportedAt)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, data)
	}
}
