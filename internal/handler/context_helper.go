package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/vaccination-tracker-api/internal/middleware"
	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

// requestIdentity returns the caller's scope and audit metadata, writing a 401 when unauthenticated.
func requestIdentity(c *gin.Context) (*models.JWTClaims, models.Scope, models.AuditMeta, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, models.Scope{}, models.AuditMeta{}, false
	}
	meta := models.AuditMeta{UserID: claims.UserID, IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	return claims, models.ScopeFromClaims(claims), meta, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// parseDashboardFilter reads the shared list filters. Malformed values are rejected rather than ignored.
func parseDashboardFilter(c *gin.Context) (models.DashboardFilter, error) {
	filter := models.DashboardFilter{
		Query:    strings.TrimSpace(c.Query("q")),
		SchoolID: strings.TrimSpace(c.Query("schoolId")),
	}

	var err error
	if filter.AgeMin, err = optionalInt(c, "ageMin"); err != nil {
		return filter, err
	}
	if filter.AgeMax, err = optionalInt(c, "ageMax"); err != nil {
		return filter, err
	}
	if filter.AgeMin != nil && filter.AgeMax != nil && *filter.AgeMin > *filter.AgeMax {
		return filter, appErrors.Clone(appErrors.ErrValidation, "ageMin must not exceed ageMax")
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.ImmunizationStatusCode(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "status must be one of SEM_DADOS, EM_DIA, INCOMPLETO, ATRASADO")
		}
		filter.Status = status
	}

	if raw := strings.TrimSpace(c.Query("sex")); raw != "" {
		sex := models.Sex(strings.ToUpper(raw))
		if !sex.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "sex must be one of F, M, NI")
		}
		filter.Sex = sex
	}

	if raw := strings.TrimSpace(c.Query("vaccineId")); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "vaccineId must be a valid UUID")
		}
		filter.VaccineID = raw
	}

	if filter.SchoolID != "" {
		if _, err := uuid.Parse(filter.SchoolID); err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "schoolId must be a valid UUID")
		}
	}

	return filter, nil
}

func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must be a non-negative integer")
	}
	return &value, nil
}

func positiveInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return value, nil
}
