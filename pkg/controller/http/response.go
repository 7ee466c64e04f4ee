package http

import (
	"encoding/json"
	"net/http"

	"github.com/insurdesk/concierge/pkg/utils/errutil"
	"github.com/insurdesk/concierge/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"))
		return
	}
	writeRaw(w, r, status, data)
}

func writeRaw(w http.ResponseWriter, r *http.Request, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
