package httpserver

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	app "github.com/bryanwahyu/binwatch/internal/application"
	appingest "github.com/bryanwahyu/binwatch/internal/application/ingest"
	appnlq "github.com/bryanwahyu/binwatch/internal/application/nlq"
	apprecon "github.com/bryanwahyu/binwatch/internal/application/recon"
	appreport "github.com/bryanwahyu/binwatch/internal/application/report"
	appsnapshots "github.com/bryanwahyu/binwatch/internal/application/snapshots"
	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
	domnlq "github.com/bryanwahyu/binwatch/internal/domain/nlq"
	domrecon "github.com/bryanwahyu/binwatch/internal/domain/recon"
	"github.com/bryanwahyu/binwatch/internal/middleware"
)

// ErrBadRequest menandai error input dari client, dibalas 400
var ErrBadRequest = errors.New("bad request")

type Router struct {
	reconSvc    *apprecon.Service
	ingestSvc   *appingest.Service
	snapshotSvc *appsnapshots.Service
	reportSvc   *appreport.Service
	nlqSvc      *appnlq.Service

	orders      inventory.OrderRepository
	allocations inventory.AllocationRepository
	items       inventory.ItemRepository
	bins        inventory.BinRepository
}

// Deps dependensi router, diisi dari main
type Deps struct {
	Recon     *apprecon.Service
	Ingest    *appingest.Service
	Snapshots *appsnapshots.Service
	Report    *appreport.Service
	NLQ       *appnlq.Service

	Orders      inventory.OrderRepository
	Allocations inventory.AllocationRepository
	Items       inventory.ItemRepository
	Bins        inventory.BinRepository

	HealthCheckers map[string]middleware.HealthChecker
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		reconSvc:    d.Recon,
		ingestSvc:   d.Ingest,
		snapshotSvc: d.Snapshots,
		reportSvc:   d.Report,
		nlqSvc:      d.NLQ,
		orders:      d.Orders,
		allocations: d.Allocations,
		items:       d.Items,
		bins:        d.Bins,
	}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(d.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Route("/reconcile", func(rc chi.Router) {
			rc.Post("/run", r.wrap(r.handleReconcileRun))
			rc.Get("/anomalies", r.wrap(r.handleAnomalies))
			rc.Put("/anomalies/{id}/status", r.wrap(r.handleAnomalyStatus))
			rc.Get("/summary", r.wrap(r.handleReconcileSummary))
			rc.Get("/status", r.wrap(r.handleSystemStatus))
			rc.Get("/reports/generate", r.wrap(r.handleGenerateReport))
		})

		rt.Route("/orders", func(ro chi.Router) {
			ro.Get("/", r.wrap(r.handleListOrders))
			ro.Post("/", r.wrap(r.handleSaveOrder))
			ro.Post("/upload", r.wrap(r.handleUploadOrders))
			ro.Get("/{orderID}", r.wrap(r.handleGetOrder))
			ro.Put("/{orderID}/status", r.wrap(r.handleOrderStatus))
		})

		rt.Route("/allocations", func(ra chi.Router) {
			ra.Get("/", r.wrap(r.handleListAllocations))
			ra.Put("/", r.wrap(r.handleUpsertAllocation))
			ra.Post("/upload", r.wrap(r.handleUploadAllocations))
			ra.Get("/{itemID}", r.wrap(r.handleGetAllocation))
		})

		rt.Route("/items", func(ri chi.Router) {
			ri.Get("/", r.wrap(r.handleListItems))
			ri.Post("/", r.wrap(r.handleSaveItem))
			ri.Get("/{itemID}", r.wrap(r.handleGetItem))
			ri.Delete("/{itemID}", r.wrap(r.handleDeleteItem))
		})

		rt.Route("/bins", func(rb chi.Router) {
			rb.Get("/", r.wrap(r.handleListBins))
			rb.Post("/", r.wrap(r.handleSaveBin))
			rb.Post("/upload", r.wrap(r.handleUploadBins))
			rb.Get("/{binID}", r.wrap(r.handleGetBin))
			rb.Get("/{binID}/allocations", r.wrap(r.handleBinAllocations))
		})

		rt.Route("/snapshots", func(rs chi.Router) {
			rs.Post("/", r.wrap(r.handleRecordSnapshot))
			rs.Get("/latest", r.wrap(r.handleLatestSnapshots))
		})

		rt.Post("/nlq", r.wrap(r.handleNLQ))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, ErrBadRequest) || errors.Is(err, domrecon.ErrInvalidStatus) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, domrecon.ErrRunInProgress) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			if errors.Is(err, domnlq.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/reconcile/run?date=YYYY-MM-DD
// Sinkron: balasannya summary run yang barusan selesai.
func (r *Router) handleReconcileRun(w http.ResponseWriter, req *http.Request) error {
	date, err := r.targetDate(req)
	if err != nil {
		return err
	}

	middleware.IncrementRuns()
	summary, err := r.reconSvc.Run(req.Context(), date)
	if err != nil {
		middleware.IncrementRunsFailed()
		return err
	}
	middleware.AddAnomalies(summary.TotalAnomalies)

	return writeJSON(w, summary)
}

// GET /v1/reconcile/anomalies?date=
func (r *Router) handleAnomalies(w http.ResponseWriter, req *http.Request) error {
	date, err := r.targetDate(req)
	if err != nil {
		return err
	}
	list, err := r.reconSvc.AnomaliesForDate(req.Context(), date)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"date":      date.Format("2006-01-02"),
		"count":     len(list),
		"anomalies": list,
	})
}

// PUT /v1/reconcile/anomalies/{id}/status
// Body: {"status": "open"|"closed"}
func (r *Router) handleAnomalyStatus(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid anomaly id", ErrBadRequest)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := r.reconSvc.UpdateAnomalyStatus(req.Context(), id, body.Status); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"id": id, "status": body.Status})
}

// GET /v1/reconcile/summary?date=
func (r *Router) handleReconcileSummary(w http.ResponseWriter, req *http.Request) error {
	date, err := r.targetDate(req)
	if err != nil {
		return err
	}
	summary, err := r.reconSvc.SummaryForDate(req.Context(), date)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

// GET /v1/reconcile/status
func (r *Router) handleSystemStatus(w http.ResponseWriter, req *http.Request) error {
	status, err := r.reconSvc.SystemStatus(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, status)
}

// GET /v1/reconcile/reports/generate?date=
func (r *Router) handleGenerateReport(w http.ResponseWriter, req *http.Request) error {
	date, err := r.targetDate(req)
	if err != nil {
		return err
	}
	refs, err := r.reportSvc.GenerateReconciliation(req.Context(), date)
	if err != nil {
		return err
	}
	return writeJSON(w, refs)
}

// POST /v1/orders/upload (body CSV)
func (r *Router) handleUploadOrders(w http.ResponseWriter, req *http.Request) error {
	content, err := readBody(req)
	if err != nil {
		return err
	}
	res, err := r.ingestSvc.ImportOrders(req.Context(), content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return writeJSON(w, res)
}

// POST /v1/allocations/upload (body CSV)
func (r *Router) handleUploadAllocations(w http.ResponseWriter, req *http.Request) error {
	content, err := readBody(req)
	if err != nil {
		return err
	}
	res, err := r.ingestSvc.ImportAllocations(req.Context(), content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return writeJSON(w, res)
}

// POST /v1/bins/upload (body CSV)
func (r *Router) handleUploadBins(w http.ResponseWriter, req *http.Request) error {
	content, err := readBody(req)
	if err != nil {
		return err
	}
	res, err := r.ingestSvc.ImportBins(req.Context(), content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return writeJSON(w, res)
}

// GET /v1/orders?offset=&limit=
func (r *Router) handleListOrders(w http.ResponseWriter, req *http.Request) error {
	offset, limit := pagination(req)
	list, err := r.orders.List(req.Context(), offset, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/orders
func (r *Router) handleSaveOrder(w http.ResponseWriter, req *http.Request) error {
	var o inventory.Order
	if err := json.NewDecoder(req.Body).Decode(&o); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := middleware.ValidateOrderID(o.OrderID); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if o.Status == "" {
		o.Status = inventory.OrderPending
	}
	if err := r.orders.Save(req.Context(), &o); err != nil {
		return err
	}
	return writeJSON(w, &o)
}

// GET /v1/orders/{orderID}
func (r *Router) handleGetOrder(w http.ResponseWriter, req *http.Request) error {
	o, err := r.orders.Get(req.Context(), chi.URLParam(req, "orderID"))
	if err != nil {
		return err
	}
	return writeJSON(w, o)
}

// PUT /v1/orders/{orderID}/status
// Body: {"status": "pending"|"shipped"}
func (r *Router) handleOrderStatus(w http.ResponseWriter, req *http.Request) error {
	orderID := chi.URLParam(req, "orderID")
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	st := inventory.OrderStatus(body.Status)
	if st != inventory.OrderPending && st != inventory.OrderShipped {
		return fmt.Errorf("%w: invalid order status: %s", ErrBadRequest, body.Status)
	}
	if err := r.orders.UpdateStatus(req.Context(), orderID, st); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"order_id": orderID, "status": st})
}

// GET /v1/allocations?offset=&limit=
func (r *Router) handleListAllocations(w http.ResponseWriter, req *http.Request) error {
	offset, limit := pagination(req)
	list, err := r.allocations.List(req.Context(), offset, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// PUT /v1/allocations
func (r *Router) handleUpsertAllocation(w http.ResponseWriter, req *http.Request) error {
	var a inventory.Allocation
	if err := json.NewDecoder(req.Body).Decode(&a); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := middleware.ValidateItemID(a.ItemID); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := middleware.ValidateBinID(a.BinID); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := r.allocations.Upsert(req.Context(), &a); err != nil {
		return err
	}
	return writeJSON(w, &a)
}

// GET /v1/allocations/{itemID}
func (r *Router) handleGetAllocation(w http.ResponseWriter, req *http.Request) error {
	a, err := r.allocations.Get(req.Context(), chi.URLParam(req, "itemID"))
	if err != nil {
		return err
	}
	return writeJSON(w, a)
}

// GET /v1/items?offset=&limit=
func (r *Router) handleListItems(w http.ResponseWriter, req *http.Request) error {
	offset, limit := pagination(req)
	list, err := r.items.List(req.Context(), offset, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/items
func (r *Router) handleSaveItem(w http.ResponseWriter, req *http.Request) error {
	var it inventory.Item
	if err := json.NewDecoder(req.Body).Decode(&it); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := middleware.ValidateItemID(it.ItemID); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := r.items.Save(req.Context(), &it); err != nil {
		return err
	}
	return writeJSON(w, &it)
}

// GET /v1/items/{itemID}
func (r *Router) handleGetItem(w http.ResponseWriter, req *http.Request) error {
	it, err := r.items.Get(req.Context(), chi.URLParam(req, "itemID"))
	if err != nil {
		return err
	}
	return writeJSON(w, it)
}

// DELETE /v1/items/{itemID}
func (r *Router) handleDeleteItem(w http.ResponseWriter, req *http.Request) error {
	if err := r.items.Delete(req.Context(), chi.URLParam(req, "itemID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/bins?offset=&limit=
func (r *Router) handleListBins(w http.ResponseWriter, req *http.Request) error {
	offset, limit := pagination(req)
	list, err := r.bins.List(req.Context(), offset, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/bins
func (r *Router) handleSaveBin(w http.ResponseWriter, req *http.Request) error {
	var b inventory.Bin
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := middleware.ValidateBinID(b.BinID); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := r.bins.Save(req.Context(), &b); err != nil {
		return err
	}
	return writeJSON(w, &b)
}

// GET /v1/bins/{binID}
func (r *Router) handleGetBin(w http.ResponseWriter, req *http.Request) error {
	b, err := r.bins.Get(req.Context(), chi.URLParam(req, "binID"))
	if err != nil {
		return err
	}
	return writeJSON(w, b)
}

// GET /v1/bins/{binID}/allocations
func (r *Router) handleBinAllocations(w http.ResponseWriter, req *http.Request) error {
	list, err := r.allocations.FindByBin(req.Context(), chi.URLParam(req, "binID"))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/snapshots
// Body: {"bin_id":"A1","item_ids":["I1"],"conf":0.93,"ocr_text":"...","photo_b64":"..."}
func (r *Router) handleRecordSnapshot(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		BinID    string   `json:"bin_id"`
		ItemIDs  []string `json:"item_ids"`
		Conf     float64  `json:"conf"`
		OCRText  string   `json:"ocr_text"`
		PhotoB64 string   `json:"photo_b64"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := middleware.ValidateBinID(body.BinID); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	var photo []byte
	if body.PhotoB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.PhotoB64)
		if err != nil {
			return fmt.Errorf("%w: invalid photo_b64: %v", ErrBadRequest, err)
		}
		photo = decoded
	}

	res, err := r.snapshotSvc.Record(req.Context(), appsnapshots.RecordCommand{
		BinID:   body.BinID,
		ItemIDs: body.ItemIDs,
		Conf:    body.Conf,
		OCRText: middleware.SanitizeString(body.OCRText),
		Photo:   photo,
	})
	if err != nil {
		return err
	}
	middleware.IncrementSnapshots()
	return writeJSON(w, res)
}

// GET /v1/snapshots/latest?cutoff=YYYY-MM-DD
func (r *Router) handleLatestSnapshots(w http.ResponseWriter, req *http.Request) error {
	cutoff := req.URL.Query().Get("cutoff")
	if err := middleware.ValidateDate(cutoff); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	list, err := r.snapshotSvc.LatestPerBin(req.Context(), cutoff)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/nlq
// Body: {"question": "what's in bin A3?"}
func (r *Router) handleNLQ(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	resp, err := r.nlqSvc.Query(req.Context(), middleware.SanitizeString(body.Question))
	if err != nil {
		if errors.Is(err, domnlq.ErrQuotaExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return writeJSON(w, resp)
}

// targetDate baca ?date=, default hari ini menurut clock service
func (r *Router) targetDate(req *http.Request) (t time.Time, err error) {
	raw := req.URL.Query().Get("date")
	if raw == "" {
		return r.reconSvc.Clock.Now(), nil
	}
	parsed, err := app.ParseDate(raw)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return parsed, nil
}

func pagination(req *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(req.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(req.URL.Query().Get("limit"))
	return middleware.ValidateOffset(offset), middleware.ValidateLimit(limit)
}

func readBody(req *http.Request) (string, error) {
	data, err := io.ReadAll(io.LimitReader(req.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrBadRequest, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty body", ErrBadRequest)
	}
	return string(data), nil
}
