package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/api/middleware"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
)

// actorFromRequest pulls the authenticated user id and role out of the
// request context. Both are seeded by the auth middleware, so a miss here
// means the route was mounted without it.
func actorFromRequest(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role context")
	}
	return userID, role, nil
}

// pathUUID parses a chi URL parameter as a UUID.
func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

// readImageUpload extracts the "image" part from a multipart upload. The
// caller owns closing the returned file.
func readImageUpload(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file required")
	}
	return file, header, nil
}
