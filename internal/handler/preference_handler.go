package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/dto"
	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type preferenceService interface {
	AgeBuckets(ctx context.Context, userID string) ([]models.AgeBucket, error)
	SetAgeBuckets(ctx context.Context, meta models.AuditMeta, raw []byte) ([]models.AgeBucket, error)
}

// PreferenceHandler exposes per-user dashboard preferences.
type PreferenceHandler struct {
	preferences preferenceService
}

// NewPreferenceHandler constructs PreferenceHandler.
func NewPreferenceHandler(preferences preferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

// GetAgeBuckets godoc
// @Summary Effective age buckets of the caller
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/preferences/age-buckets [get]
func (h *PreferenceHandler) GetAgeBuckets(c *gin.Context) {
	claims, _, _, ok := requestIdentity(c)
	if !ok {
		return
	}
	buckets, err := h.preferences.AgeBuckets(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AgeBucketPreferenceResponse{AgeBuckets: buckets}, nil)
}

// PutAgeBuckets godoc
// @Summary Replace the caller's age buckets
// @Description Buckets must be non-empty, labelled, with min <= max and no overlaps.
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body dto.AgeBucketPreferenceRequest true "Bucket list"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboards/preferences/age-buckets [put]
func (h *PreferenceHandler) PutAgeBuckets(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req dto.AgeBucketPreferenceRequest
	if !bindJSON(c, &req) {
		return
	}
	buckets, err := h.preferences.SetAgeBuckets(c.Request.Context(), meta, req.AgeBuckets)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AgeBucketPreferenceResponse{AgeBuckets: buckets}, nil)
}
