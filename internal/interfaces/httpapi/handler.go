package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	clubService        *usecase.ClubService
	joinRequestService *usecase.JoinRequestService
	opportunityService *usecase.OpportunityService
	applicationService *usecase.ApplicationService
	affiliationService *usecase.AffiliationService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	clubService *usecase.ClubService,
	joinRequestService *usecase.JoinRequestService,
	opportunityService *usecase.OpportunityService,
	applicationService *usecase.ApplicationService,
	affiliationService *usecase.AffiliationService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		clubService:        clubService,
		joinRequestService: joinRequestService,
		opportunityService: opportunityService,
		applicationService: applicationService,
		affiliationService: affiliationService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a JSON body into dst and validates it. An empty body is accepted when
// allowEmpty is set so action endpoints can take optional payloads.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if !allowEmpty {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return h.validateRequest(ctx, dst)
	}

	decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}
