package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/outfit"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
)

// 请求体上限
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 把 DomainError 的错误码映射为 HTTP 状态码。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, core.ErrorCodeInternalError
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
		switch de.Code {
		case core.ErrorCodeInvalidInput, core.ErrorCodeNotSupported:
			status = http.StatusBadRequest
		case core.ErrorCodeNotFound:
			status = http.StatusNotFound
		case core.ErrorCodeBusy, core.ErrorCodeClosed:
			status = http.StatusConflict
		case core.ErrorCodeUnavailable:
			status = http.StatusServiceUnavailable
		}
	}
	ev := logging.With(r.Context(), *s.log).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.With(r.Context(), *s.log).Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "malformed request body", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "invalid request", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFeed GET /api/v1/feed：mode/seed/page/pageSize 与筛选条件都在查询参数中。
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	req, err := core.ParsePageRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.feed.FetchPage(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if page.Items == nil {
		page.Items = []*core.Item{}
	}
	writeJSON(w, http.StatusOK, page)
}

type outfitRequest struct {
	BaseItemID string `json:"baseItemId" validate:"required"`
	PoolSize   int    `json:"poolSize" validate:"omitempty,gte=1,lte=500"`
}

type outfitResponse struct {
	Base         *core.Item                      `json:"base"`
	BaseSlot     core.OutfitSlot                 `json:"baseSlot"`
	Locked       core.OutfitSlot                 `json:"locked"`
	Tops         []*core.Item                    `json:"tops"`
	Bottoms      []*core.Item                    `json:"bottoms"`
	Shoes        []*core.Item                    `json:"shoes"`
	Accessories  []*core.Item                    `json:"accessories"`
	Fallback     []*core.Item                    `json:"fallback"`
	FromFallback map[core.OutfitSlot]bool        `json:"fromFallback,omitempty"`
	ScoreSource  map[core.OutfitSlot]string      `json:"scoreSource,omitempty"`
	Scores       map[core.OutfitSlot]core.Scores `json:"scores,omitempty"`
}

func newOutfitResponse(o *outfit.Outfit) outfitResponse {
	return outfitResponse{
		Base:         o.Base,
		BaseSlot:     o.BaseSlot,
		Locked:       o.Locked,
		Tops:         o.Tops,
		Bottoms:      o.Bottoms,
		Shoes:        o.Shoes,
		Accessories:  o.Accessories,
		Fallback:     o.Fallback,
		FromFallback: o.FromFallback,
		ScoreSource:  o.ScoreSource,
		Scores:       o.Scores,
	}
}

// handleOutfit POST /api/v1/outfits：读取基准商品，从商品库取候选池并组装搭配。
func (s *Server) handleOutfit(w http.ResponseWriter, r *http.Request) {
	var req outfitRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	base, err := s.items.Get(r.Context(), req.BaseItemID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pool, err := s.pool.Query(r.Context(), core.Filters{})
	if err != nil {
		s.writeError(w, r, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "load outfit pool", err))
		return
	}
	size := req.PoolSize
	if size == 0 {
		size = s.opts.DefaultPoolSize
	}
	if len(pool) > size {
		pool = pool[:size]
	}

	o, err := s.assembler.Assemble(r.Context(), base, pool)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutfitResponse(o))
}

type telemetryRequest struct {
	UserID string `json:"userId"`
	ItemID string `json:"itemId" validate:"required"`
}

// handleTelemetry POST /api/v1/telemetry/{view|click}。上报失败只记日志，仍返回 202。
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	kind := feedback.EventType(chi.URLParam(r, "kind"))
	if kind != feedback.EventView && kind != feedback.EventClick {
		s.writeError(w, r, core.NewDomainError(core.ModuleFeed, core.ErrorCodeNotFound, fmt.Sprintf("unknown telemetry kind %q", kind)))
		return
	}
	var req telemetryRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err := feedback.Record(r.Context(), s.sink, feedback.NewEvent(kind, req.UserID, req.ItemID))
	metrics.RecordTelemetry(string(kind), err)
	if err != nil {
		logging.With(r.Context(), *s.log).Warn().Err(err).
			Str("event", string(kind)).
			Str("item_id", req.ItemID).
			Msg("telemetry dropped")
	}
	w.WriteHeader(http.StatusAccepted)
}
