package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// mapRepoErr turns repository sentinels into DomainErrors for resource/id.
func mapRepoErr(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict(resource+" was modified by another request, reload and retry", map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	}
	return apperrors.MapError(err)
}

// checkID reports ids that cannot name a stored row as not found.
func checkID(resource, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return nil
}
