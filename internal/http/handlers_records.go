package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/export"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/remote"
	"fintrack/internal/store"
)

// workspace returns the signed-in user's workspace. A failed first load is
// logged and reported through loadErr; the workspace is still usable and the
// next request retries the load.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (ws *store.Workspace, u identity.User, loadErr error, ok bool) {
	u, _ = identity.FromContext(r.Context())
	ws, err := s.registry.Get(r.Context(), u.ID)
	if ws == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Workspace unavailable", log.FieldUserID, u.ID, "error", err)
		InternalServerError("Could not open your records").Write(w)
		return nil, u, err, false
	}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Load records failed",
			log.FieldUserID, u.ID, log.FieldOperation, log.OpLoad, log.FieldReason, remote.Reason(err), "error", err)
	}
	return ws, u, err, true
}

func loadErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	_, msg := failure(err)
	return "Your records could not be loaded. " + msg
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ws, u, loadErr, ok := s.workspace(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", dashboardView{
		FirstName: u.FirstName,
		LoadError: loadErrorMessage(loadErr),
		Form:      emptyForm(),
		List:      newListView(ws.Store),
		Modal:     newModalView(ws.Selection),
		Activity:  s.activity != nil,
	})
}

// handleRecordsPartial renders the list and total.
func (s *Server) handleRecordsPartial(w http.ResponseWriter, r *http.Request) {
	ws, _, loadErr, ok := s.workspace(w, r)
	if !ok {
		return
	}
	b := NewHTMXResponse()
	if loadErr != nil {
		b.TriggerErrorNotification(loadErrorMessage(loadErr))
	}
	s.renderWith(w, r, b, "records", newListView(ws.Store))
}

// handleActivityPartial renders the latest journal entries for the user.
func (s *Server) handleActivityPartial(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		NotFoundError("Activity is not enabled").Write(w)
		return
	}
	u, _ := identity.FromContext(r.Context())
	events, err := s.activity.ListEvents(r.Context(), u.ID, activityLimit)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "List activity failed",
			log.FieldUserID, u.ID, log.FieldOperation, log.OpActivity, "error", err)
		s.render(w, r, http.StatusOK, "activity", activityView{Error: "Recent activity is unavailable right now"})
		return
	}
	s.render(w, r, http.StatusOK, "activity", newActivityView(events))
}

func (s *Server) handleModalPartial(w http.ResponseWriter, r *http.Request) {
	ws, _, _, ok := s.workspace(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "modal", newModalView(ws.Selection))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	ws, u, _, ok := s.workspace(w, r)
	if !ok {
		return
	}
	logger := log.FromContext(r.Context())

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	in, err := parseRecordInput(p)
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	rec, err := ws.Store.Add(r.Context(), in.Record(u.ID, s.now()))
	if err != nil {
		s.mutationFailed(w, r, log.OpCreate, "", err)
		return
	}
	logger.InfoContext(r.Context(), "Record created",
		log.NewFields().WithRecord(u.ID, rec.ID).WithOperation(log.OpCreate).ToSlice()...)

	NewHTMXResponse().
		TriggerRecordsChanged(u.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Record added").
		Write(w)
}

// handleEditRecord opens the edit modal on a record.
func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	ws, _, _, ok := s.workspace(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	rec, found := ws.Store.Find(id)
	if !found {
		NotFoundError("That record no longer exists").
			TriggerErrorNotification("That record no longer exists").
			TriggerRecordsChanged(ws.UserID()).
			Write(w)
		return
	}
	ws.Selection.Select(rec)
	s.render(w, r, http.StatusOK, "modal", newModalView(ws.Selection))
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	ws, _, _, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ws.Selection.Clear()
	s.render(w, r, http.StatusOK, "modal", modalView{})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ws, u, _, ok := s.workspace(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	in, err := parseRecordInput(p)
	if err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "modal", modalView{
			Open: true, ID: id, Error: validationMessage(err), Fields: formFromInput(in),
		})
		return
	}

	if _, err := ws.Update(r.Context(), id, in.Patch()); err != nil {
		status, msg := failure(err)
		s.logMutationFailure(r, log.OpUpdate, id, err)
		// The modal stays open with what the user typed.
		s.renderWith(w, r, NewHTMXResponse().Status(status).TriggerErrorNotification(msg), "modal", modalView{
			Open: true, ID: id, Error: msg, Fields: formFromInput(in),
		})
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Record updated",
		log.NewFields().WithRecord(u.ID, id).WithOperation(log.OpUpdate).ToSlice()...)

	s.renderWith(w, r, NewHTMXResponse().
		TriggerRecordsChanged(u.ID).
		TriggerSuccessNotification("Record updated"), "modal", modalView{})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	ws, u, _, ok := s.workspace(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := ws.Delete(r.Context(), id); err != nil {
		s.mutationFailed(w, r, log.OpDelete, id, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Record deleted",
		log.NewFields().WithRecord(u.ID, id).WithOperation(log.OpDelete).ToSlice()...)

	NewHTMXResponse().
		TriggerRecordsChanged(u.ID).
		TriggerModalRefresh().
		TriggerSuccessNotification("Record deleted").
		Write(w)
}

// handleExport downloads the current collection as a workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ws, u, loadErr, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if loadErr != nil {
		status, msg := failure(loadErr)
		ErrorResponse(status, msg).Write(w)
		return
	}
	data, err := export.RecordsXLSX(ws.Store.Records())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldUserID, u.ID, log.FieldOperation, log.OpExport, "error", err)
		InternalServerError("Could not build the export").Write(w)
		return
	}
	name := fmt.Sprintf("fintrack-records-%s.xlsx", s.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// mutationFailed logs and reports a failed create or delete. Local state was
// not changed.
func (s *Server) mutationFailed(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	status, msg := failure(err)
	s.logMutationFailure(r, op, id, err)
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

func (s *Server) logMutationFailure(r *http.Request, op, id string, err error) {
	u, _ := identity.FromContext(r.Context())
	f := log.NewFields().WithRecord(u.ID, id).WithOperation(op).WithError(err)
	f[log.FieldReason] = remote.Reason(err)
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Record "+op+" failed", f.ToSlice()...)
}
