package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/api/middleware"
	"github.com/nyumbahq/nyumba-backend/internal/properties"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type stubPropertyService struct {
	dto  *properties.PropertyDTO
	list *properties.PropertyList
	err  error

	lastActor properties.Actor
	lastInput properties.CreatePropertyDTO

	assignedProperty uuid.UUID
	assignedManager  uuid.UUID
}

func (s *stubPropertyService) Create(ctx context.Context, actor properties.Actor, input properties.CreatePropertyDTO) (*properties.PropertyDTO, error) {
	s.lastActor = actor
	s.lastInput = input
	return s.dto, s.err
}

func (s *stubPropertyService) GetByID(ctx context.Context, id uuid.UUID) (*properties.PropertyDTO, error) {
	return s.dto, s.err
}

func (s *stubPropertyService) List(ctx context.Context, actor properties.Actor, params pagination.Params) (*properties.PropertyList, error) {
	s.lastActor = actor
	return s.list, s.err
}

func (s *stubPropertyService) Update(ctx context.Context, actor properties.Actor, id uuid.UUID, input properties.UpdatePropertyInput) (*properties.PropertyDTO, error) {
	s.lastActor = actor
	return s.dto, s.err
}

func (s *stubPropertyService) Delete(ctx context.Context, actor properties.Actor, id uuid.UUID) error {
	s.lastActor = actor
	return s.err
}

func (s *stubPropertyService) AttachImage(ctx context.Context, actor properties.Actor, id uuid.UUID, filename, contentType string, data io.Reader) (*properties.PropertyDTO, error) {
	return s.dto, s.err
}

func (s *stubPropertyService) AssignManager(ctx context.Context, actor properties.Actor, propertyID, managerID uuid.UUID) error {
	s.lastActor = actor
	s.assignedProperty = propertyID
	s.assignedManager = managerID
	return s.err
}

func (s *stubPropertyService) UnassignManager(ctx context.Context, actor properties.Actor, propertyID, managerID uuid.UUID) error {
	s.lastActor = actor
	s.assignedProperty = propertyID
	s.assignedManager = managerID
	return s.err
}

func withActor(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withPathParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreatePropertySuccess(t *testing.T) {
	userID := uuid.New()
	dto := &properties.PropertyDTO{
		ID:        uuid.New(),
		Name:      "Sunrise Apartments",
		Location:  "Kilimani, Nairobi",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	svc := &stubPropertyService{dto: dto}
	handler := CreateProperty(svc, nil)

	payload := []byte(`{"name":"Sunrise Apartments","location":"Kilimani, Nairobi","amenities":["parking"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, userID, enums.UserRoleSuperAdmin)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastActor.UserID != userID {
		t.Fatalf("expected actor %s got %s", userID, svc.lastActor.UserID)
	}
	if svc.lastInput.Name != "Sunrise Apartments" {
		t.Fatalf("unexpected input name %q", svc.lastInput.Name)
	}

	var envelope struct {
		Data properties.PropertyDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != dto.ID {
		t.Fatalf("expected id %s got %s", dto.ID, envelope.Data.ID)
	}
}

func TestCreatePropertyMissingContext(t *testing.T) {
	handler := CreateProperty(&stubPropertyService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", bytes.NewReader([]byte(`{"name":"x","location":"y"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCreatePropertyRejectsUnknownFields(t *testing.T) {
	handler := CreateProperty(&stubPropertyService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", bytes.NewReader([]byte(`{"name":"x","location":"y","bogus":true}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetPropertyInvalidID(t *testing.T) {
	handler := GetProperty(&stubPropertyService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/not-a-uuid", nil)
	req = withPathParam(req, "propertyID", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	handler := GetProperty(&stubPropertyService{err: pkgerrors.New(pkgerrors.CodeNotFound, "property not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+uuid.NewString(), nil)
	req = withPathParam(req, "propertyID", uuid.NewString())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestListPropertiesPassesActor(t *testing.T) {
	userID := uuid.New()
	svc := &stubPropertyService{list: &properties.PropertyList{Items: []properties.PropertyDTO{}}}
	handler := ListProperties(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties?limit=10", nil)
	req = withActor(req, userID, enums.UserRolePropertyManager)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastActor.Role != enums.UserRolePropertyManager {
		t.Fatalf("expected manager actor got %s", svc.lastActor.Role)
	}
}

func TestAssignPropertyManagerSuccess(t *testing.T) {
	svc := &stubPropertyService{}
	handler := AssignPropertyManager(svc, nil)

	propertyID := uuid.New()
	managerID := uuid.New()
	payload := []byte(`{"user_id":"` + managerID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/"+propertyID.String()+"/managers", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	req = withPathParam(req, "propertyID", propertyID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.assignedProperty != propertyID || svc.assignedManager != managerID {
		t.Fatalf("expected assignment %s -> %s, got %s -> %s", managerID, propertyID, svc.assignedManager, svc.assignedProperty)
	}
}

func TestAssignPropertyManagerRequiresUserID(t *testing.T) {
	handler := AssignPropertyManager(&stubPropertyService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/"+uuid.NewString()+"/managers", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	req = withPathParam(req, "propertyID", uuid.NewString())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnassignPropertyManagerSuccess(t *testing.T) {
	svc := &stubPropertyService{}
	handler := UnassignPropertyManager(svc, nil)

	propertyID := uuid.New()
	managerID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/properties/"+propertyID.String()+"/managers/"+managerID.String(), nil)
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("propertyID", propertyID.String())
	rctx.URLParams.Add("managerID", managerID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.assignedProperty != propertyID || svc.assignedManager != managerID {
		t.Fatalf("expected unassignment of %s from %s", managerID, propertyID)
	}
}

func TestListPropertiesRejectsBadLimit(t *testing.T) {
	svc := &stubPropertyService{list: &properties.PropertyList{}}
	handler := ListProperties(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties?limit=banana", nil)
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}
