package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"dost-atlas/middleware"
	"dost-atlas/models"
	"dost-atlas/services"
	"dost-atlas/utils/errors"
)

const maxBodyBytes = 1 << 20

// RecordService is the persistence the records API needs.
type RecordService interface {
	ListImplementations(ctx context.Context) ([]models.ImplementationPoint, error)
	CreateImplementation(ctx context.Context, place string, coords models.Coordinates, implemented bool) (models.ImplementationPoint, error)
	SetImplemented(ctx context.Context, id string, implemented bool) (models.ImplementationPoint, error)
	ListProjects(ctx context.Context) ([]models.ProjectPoint, error)
	GetProject(ctx context.Context, id string) (models.ProjectPoint, error)
	CreateProject(ctx context.Context, title, location, programType string, coords models.Coordinates) (models.ProjectPoint, error)
	UpdateProject(ctx context.Context, id string, patch services.ProjectPatch) (models.ProjectPoint, error)
	DeleteProject(ctx context.Context, id string) (models.ProjectPoint, error)
}

type RecordHandler struct {
	records RecordService
}

func NewRecordHandler(records RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

type listResponse[T any] struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    []T  `json:"data"`
}

type itemResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse[T]{Success: true, Count: len(items), Data: items})
}

func writeItem[T any](w http.ResponseWriter, status int, message string, item T) {
	middleware.WriteJSON(w, status, itemResponse[T]{Success: true, Message: message, Data: item})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest, err.Error())
	}
	return nil
}

func badRequest(message string) *errors.APIError {
	return errors.NewAPIError("VALIDATION_ERROR", message, http.StatusBadRequest)
}

// coordinatesError maps a coordinate parse failure to the message shown to
// the operator.
func coordinatesError(err error) *errors.APIError {
	switch {
	case stderrors.Is(err, models.ErrCoordinatesFormat):
		return badRequest("Coordinates must be in 'lat, lng' format")
	case stderrors.Is(err, models.ErrCoordinatesRange):
		return badRequest("Coordinates are out of range")
	default:
		return errors.ErrInvalidCoordinates
	}
}

func (h *RecordHandler) ListImplementations(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListImplementations(r.Context())
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "DB_ERROR", "Error fetching implementations", http.StatusInternalServerError))
		return
	}
	writeList(w, records)
}

func (h *RecordHandler) CreateImplementation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Place       string                  `json:"place"`
		Coordinates models.CoordinatesInput `json:"coordinates"`
		Implemented bool                    `json:"implemented"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	place := strings.TrimSpace(input.Place)
	if place == "" || !input.Coordinates.Set {
		middleware.WriteError(w, badRequest("Place and coordinates are required"))
		return
	}
	coords, err := input.Coordinates.Resolve()
	if err != nil {
		middleware.WriteError(w, coordinatesError(err))
		return
	}

	rec, err := h.records.CreateImplementation(r.Context(), place, coords, input.Implemented)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusCreated, "Implementation record created successfully", rec)
}

func (h *RecordHandler) UpdateImplementationStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Implemented *bool `json:"implemented"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Implemented == nil {
		middleware.WriteError(w, badRequest("Implemented status is required"))
		return
	}

	rec, err := h.records.SetImplemented(r.Context(), mux.Vars(r)["id"], *input.Implemented)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusOK, "Implementation status updated successfully", rec)
}

func (h *RecordHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListProjects(r.Context())
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "DB_ERROR", "Error fetching projects", http.StatusInternalServerError))
		return
	}
	writeList(w, records)
}

func (h *RecordHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusOK, "", rec)
}

type projectInput struct {
	ProjectTitle *string                 `json:"projectTitle"`
	Location     *string                 `json:"location"`
	ProgramType  *string                 `json:"programType"`
	Coordinates  models.CoordinatesInput `json:"coordinates"`
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func programTypeError() *errors.APIError {
	return badRequest("Program type must be one of: " + strings.Join(models.ProgramTypes, "; "))
}

func (h *RecordHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input projectInput
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	title, location, program := trimmed(input.ProjectTitle), trimmed(input.Location), trimmed(input.ProgramType)
	if title == "" || location == "" || program == "" || !input.Coordinates.Set {
		middleware.WriteError(w, badRequest("Project title, location, coordinates, and program type are required"))
		return
	}
	if !models.IsKnownProgramType(program) {
		middleware.WriteError(w, programTypeError())
		return
	}
	coords, err := input.Coordinates.Resolve()
	if err != nil {
		middleware.WriteError(w, coordinatesError(err))
		return
	}

	rec, err := h.records.CreateProject(r.Context(), title, location, program, coords)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusCreated, "Project record created successfully", rec)
}

// UpdateProject applies the non-empty fields of the body. It serves both
// PATCH and PUT.
func (h *RecordHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var input projectInput
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	var patch services.ProjectPatch
	if v := trimmed(input.ProjectTitle); v != "" {
		patch.ProjectTitle = &v
	}
	if v := trimmed(input.Location); v != "" {
		patch.Location = &v
	}
	if v := trimmed(input.ProgramType); v != "" {
		if !models.IsKnownProgramType(v) {
			middleware.WriteError(w, programTypeError())
			return
		}
		patch.ProgramType = &v
	}
	if input.Coordinates.Set {
		coords, err := input.Coordinates.Resolve()
		if err != nil {
			middleware.WriteError(w, coordinatesError(err))
			return
		}
		patch.Coordinates = &coords
	}

	id := mux.Vars(r)["id"]
	var (
		rec models.ProjectPoint
		err error
	)
	if patch.Empty() {
		rec, err = h.records.GetProject(r.Context(), id)
	} else {
		rec, err = h.records.UpdateProject(r.Context(), id, patch)
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusOK, "Project updated successfully", rec)
}

func (h *RecordHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.DeleteProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeItem(w, http.StatusOK, "Project deleted successfully", rec)
}
