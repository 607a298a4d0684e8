package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	reqdto "coupon-ledger/internal/handler/dto/request"
	resdto "coupon-ledger/internal/handler/dto/response"
	"coupon-ledger/internal/handler/httperr"
	"coupon-ledger/internal/pkg/errs"
	"coupon-ledger/internal/usecase/commands"
	"coupon-ledger/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxWebhookBody = 1 << 20

var errEmptyPayload = errs.New("empty purchase payload")

// Redemption messages shown on the point-of-sale page.
const (
	msgCodeMissing   = "Código no enviado"
	msgCodeNotFound  = "Código no encontrado"
	msgCodeRedeemed  = "Este código ya fue canjeado"
	msgCodeValid     = "Código válido y marcado como canjeado"
	msgInternalError = "Error interno"
	msgUnavailable   = "Servicio no disponible, intenta de nuevo"

	msgIssued            = "Datos guardados, QR generado y correo procesado"
	msgIssuedNotNotified = "Datos guardados y QR generado; el correo no pudo enviarse"
	msgInvalidPurchase   = "Datos de compra inválidos"
)

type CouponHandler struct {
	issuance   commands.IssuanceCommands
	redemption commands.RedemptionCommands
	q          queries.CouponQueries
	normalizer reqdto.PayloadNormalizer
}

func NewCouponHandler(
	issuance commands.IssuanceCommands,
	redemption commands.RedemptionCommands,
	q queries.CouponQueries,
	normalizer reqdto.PayloadNormalizer,
) *CouponHandler {
	if normalizer == nil {
		normalizer = reqdto.WixNormalizer{}
	}
	return &CouponHandler{issuance: issuance, redemption: redemption, q: q, normalizer: normalizer}
}

// @Summary Issue coupon
// @Description Receives a purchase notification, appends a coupon to the ledger and emails it to the buyer.
// @Description Accepts JSON (optionally wrapped in {"data": {...}}) or a urlencoded form.
// @Tags coupons
// @Accept json
// @Produce json
// @Param request body reqdto.PurchasePayload true "Purchase notification"
// @Success 200 {object} resdto.IssueResponse
// @Failure 400 {object} resdto.StatusResponse
// @Failure 500 {object} resdto.StatusResponse
// @Failure 503 {object} resdto.StatusResponse
// @Router /webhook [post]
func (h *CouponHandler) Issue(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		httperr.AbortWithBody(c, http.StatusBadRequest, err, statusBody(msgInvalidPurchase))
		return
	}

	payload := h.normalizer.Normalize(fields)
	result, err := h.issuance.Issue(c.Request.Context(), payload.ToPurchase())
	if err != nil {
		status := statusFromError(err)
		msg := msgInternalError
		switch status {
		case http.StatusBadRequest:
			msg = msgInvalidPurchase
		case http.StatusServiceUnavailable:
			msg = msgUnavailable
		}
		httperr.AbortWithBody(c, status, err, statusBody(msg))
		return
	}

	msg := msgIssued
	if !result.Notified {
		msg = msgIssuedNotNotified
	}
	c.JSON(http.StatusOK, resdto.IssueResponse{
		Status:   resdto.StatusSuccess,
		Message:  msg,
		Code:     result.Record.Code().String(),
		Notified: result.Notified,
	})
}

// @Summary Redeem coupon
// @Description Marks a coupon as redeemed. Only the first request for a code succeeds.
// @Tags coupons
// @Accept json
// @Produce json
// @Param request body reqdto.RedeemRequest true "Code to redeem"
// @Success 200 {object} resdto.StatusResponse "valid"
// @Failure 400 {object} resdto.StatusResponse "code missing"
// @Failure 403 {object} resdto.StatusResponse "already redeemed"
// @Failure 404 {object} resdto.StatusResponse "unknown code"
// @Failure 500 {object} resdto.StatusResponse
// @Failure 503 {object} resdto.StatusResponse
// @Router /validar [post]
func (h *CouponHandler) Redeem(c *gin.Context) {
	var req reqdto.RedeemRequest
	// unreadable bodies fall through as an empty code
	_ = bindRedeemRequest(c, &req)

	_, err := h.redemption.Redeem(c.Request.Context(), req.RawCode())
	if err == nil {
		c.JSON(http.StatusOK, resdto.StatusResponse{Status: resdto.StatusValid, Message: msgCodeValid})
		return
	}

	status := statusFromError(err)
	body := statusBody(msgInternalError)
	switch status {
	case http.StatusBadRequest:
		body = statusBody(msgCodeMissing)
	case http.StatusNotFound:
		body = statusBody(msgCodeNotFound)
	case http.StatusForbidden:
		body = resdto.StatusResponse{Status: resdto.StatusInvalid, Message: msgCodeRedeemed}
	case http.StatusServiceUnavailable:
		body = statusBody(msgUnavailable)
	}
	httperr.AbortWithBody(c, status, err, body)
}

// @Summary Get coupon
// @Description Looks up an issued coupon by code
// @Tags coupons
// @Produce json
// @Param code path string true "Coupon code"
// @Success 200 {object} resdto.CouponResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/coupons/{code} [get]
func (h *CouponHandler) Get(c *gin.Context) {
	view, err := h.q.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCouponView(view))
}

// @Summary Coupon image
// @Description Scannable PNG encoding the redemption URL of an issued coupon
// @Tags coupons
// @Produce png
// @Param code path string true "Coupon code"
// @Success 200 {file} binary
// @Failure 404 {object} httperr.Response
// @Router /api/coupons/{code}/qr.png [get]
func (h *CouponHandler) Image(c *gin.Context) {
	png, err := h.q.Image(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortQueryError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func abortQueryError(c *gin.Context, err error) {
	status := statusFromError(err)
	msg := "Internal server error"
	switch status {
	case http.StatusBadRequest:
		msg = "Invalid coupon code"
	case http.StatusNotFound:
		msg = "Coupon not found"
	case http.StatusServiceUnavailable:
		msg = "Ledger unavailable"
	}
	httperr.AbortWithError(c, status, err, msg, nil)
}

func statusFromError(err error) int {
	switch {
	case errs.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrCouponNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrAlreadyRedeemed):
		return http.StatusForbidden
	case errs.Is(err, errs.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func statusBody(msg string) resdto.StatusResponse {
	return resdto.StatusResponse{Status: resdto.StatusError, Message: msg}
}

func isFormRequest(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == binding.MIMEPOSTForm || ct == binding.MIMEMultipartPOSTForm
}

func bindRedeemRequest(c *gin.Context, req *reqdto.RedeemRequest) error {
	if isFormRequest(c) {
		return c.ShouldBindWith(req, binding.Form)
	}
	// the content type is not trusted; scanners often omit it
	return c.ShouldBindBodyWith(req, binding.JSON)
}

// bindFields reads a loosely typed purchase payload from JSON or a form.
func bindFields(c *gin.Context) (map[string]any, error) {
	if isFormRequest(c) {
		if err := c.Request.ParseMultipartForm(maxWebhookBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		return formFields(c.Request.PostForm), nil
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyPayload
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields = reqdto.UnwrapEnvelope(fields)
	if len(fields) == 0 {
		return nil, errEmptyPayload
	}
	return fields, nil
}

func formFields(form url.Values) map[string]any {
	fields := make(map[string]any, len(form))
	for k, v := range form {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}
