package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	campaigndto "github.com/LavaJover/shvark-kickstarter-service/internal/usecase/dto/campaign"
	"github.com/LavaJover/shvark-kickstarter-service/internal/usecase/kickstarter"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	uc     kickstarter.KickstarterUsecase
	logger zerolog.Logger
	now    func() time.Time
}

func NewHandler(uc kickstarter.KickstarterUsecase, logger zerolog.Logger) *Handler {
	return &Handler{
		uc:     uc,
		logger: logger.With().Str("component", "http").Logger(),
		now:    time.Now,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, code, err.Error(), middleware.GetReqID(r.Context()))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), middleware.GetReqID(r.Context()))
		return false
	}
	return true
}

func campaignIDParam(w http.ResponseWriter, r *http.Request) (domain.CampaignID, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "campaign_id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_campaign_id", err.Error(), middleware.GetReqID(r.Context()))
		return 0, false
	}
	return domain.CampaignID(id), true
}

// assetReceived answers a token ledger's transfer notification with the
// amount to hand back. Rejections are a 200 with the full amount unused.
func (h *Handler) assetReceived(w http.ResponseWriter, r *http.Request) {
	var req campaigndto.AssetReceivedInput
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.uc.OnAssetReceived(r.Context(), &req, h.now())
	if out == nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) transferCallback(w http.ResponseWriter, r *http.Request) {
	var req campaigndto.TransferResultInput
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.uc.ResolveSettlement(r.Context(), &req, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var in campaigndto.ListCampaignsInput
	for field, dst := range map[string]*int{"offset": &in.Offset, "limit": &in.Limit} {
		if raw := q.Get(field); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_input", field+" must be an integer", middleware.GetReqID(r.Context()))
				return
			}
			*dst = n
		}
	}
	page, err := h.uc.ListCampaigns(r.Context(), &in, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", page)
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	out, err := h.uc.GetCampaign(r.Context(), id, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) getCampaignBySlug(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.GetCampaignBySlug(r.Context(), chi.URLParam(r, "slug"), h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) availableReward(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	v, err := h.uc.AvailableReward(r.Context(), id, domain.AccountID(chi.URLParam(r, "account")), h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"available": v})
}

func (h *Handler) getSupporter(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.GetSupporter(r.Context(), domain.AccountID(chi.URLParam(r, "account")), h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) getSettlement(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.GetSettlement(r.Context(), chi.URLParam(r, "settlement_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) worklist(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.uc.Worklist(r.Context(), h.now(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}
