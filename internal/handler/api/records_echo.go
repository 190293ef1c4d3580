package api

import (
	"errors"
	"net/http"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	"FinTrack/internal/middleware"
	xhttp "FinTrack/pkg/http"
	xlogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RecordsEchoHandler serves owner-scoped line items for every record kind.
type RecordsEchoHandler struct {
	logger *xlogger.Logger
	store  domrepo.RecordStore
	guard  Guard
}

func NewRecordsEchoHandler(logger *xlogger.Logger, store domrepo.RecordStore, guard Guard) *RecordsEchoHandler {
	return &RecordsEchoHandler{logger: logger, store: store, guard: guard}
}

func (h *RecordsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1", h.guard...)
	for _, kind := range models.RecordKinds() {
		base := "/" + string(kind)
		g.GET(base+"/", h.List(kind))
		g.POST(base+"/", h.Create(kind))
		g.GET(base+"/sum/", h.Sum(kind))
		g.DELETE(base+"/:id/", h.Delete(kind))
	}
}

func (h *RecordsEchoHandler) List(kind models.RecordKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, ok := middleware.PrincipalFrom(c)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
		}
		req := &models.ListRecordsRequest{}
		if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
			return xhttp.BadRequestResponse(c, verr)
		}

		recs, err := h.store.List(c.Request().Context(), owner.ID, kind, req.Limit)
		if err != nil {
			h.logger.Error("list records error", xlogger.String("kind", string(kind)), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("could not list records").WithError(err))
		}
		rows := make([]models.RecordResponse, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, models.NewRecordResponse(r))
		}
		return xhttp.ListResponse(c, rows, int64(len(rows)))
	}
}

func (h *RecordsEchoHandler) Create(kind models.RecordKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, ok := middleware.PrincipalFrom(c)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
		}
		req := &models.CreateRecordRequest{}
		if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
			return xhttp.BadRequestResponse(c, verr)
		}

		rec, appErr := recordFromRequest(owner.ID, kind, req)
		if appErr != nil {
			return xhttp.AppErrorResponse(c, appErr)
		}
		rec, err := h.store.Create(c.Request().Context(), rec)
		if err != nil {
			h.logger.Error("create record error", xlogger.String("kind", string(kind)), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("could not create record").WithError(err))
		}
		return xhttp.CreatedResponse(c, models.NewRecordResponse(rec))
	}
}

func (h *RecordsEchoHandler) Delete(kind models.RecordKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, ok := middleware.PrincipalFrom(c)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
		}
		err := h.store.Delete(c.Request().Context(), owner.ID, kind, c.Param("id"))
		switch {
		case errors.Is(err, domrepo.ErrNotFound):
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("%s %s not found", kind, c.Param("id")))
		case err != nil:
			h.logger.Error("delete record error", xlogger.String("kind", string(kind)), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("could not delete record").WithError(err))
		}
		return xhttp.NoContentResponse(c)
	}
}

func (h *RecordsEchoHandler) Sum(kind models.RecordKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, ok := middleware.PrincipalFrom(c)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
		}
		total, err := h.store.Sum(c.Request().Context(), owner.ID, kind)
		if err != nil {
			h.logger.Error("sum records error", xlogger.String("kind", string(kind)), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("could not sum records").WithError(err))
		}
		return xhttp.SuccessResponse(c, models.RecordSumResponse{Kind: string(kind), Total: total.StringFixed(2)})
	}
}

// recordFromRequest converts a validated body. Investment extras are only
// kept for investment records.
func recordFromRequest(owner string, kind models.RecordKind, req *models.CreateRecordRequest) (models.Record, *xhttp.AppError) {
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return models.Record{}, xhttp.NewAppError("ERR_NUMERIC", "amount", "amount must be a number", http.StatusBadRequest)
	}
	rec := models.Record{
		Owner:  owner,
		Kind:   kind,
		Name:   req.Name,
		Amount: amount.Round(2),
	}
	if kind != models.RecordInvestment {
		return rec, nil
	}

	if req.RateOfReturn != nil {
		r, err := decimal.NewFromString(req.RateOfReturn.String())
		if err != nil {
			return models.Record{}, xhttp.NewAppError("ERR_NUMERIC", "rate_of_return", "rate_of_return must be a number", http.StatusBadRequest)
		}
		r = r.Round(2)
		rec.RateOfReturn = &r
	}
	rec.Contribution = req.Contribution
	rec.ContributionYears = req.ContributionYears
	return rec, nil
}
