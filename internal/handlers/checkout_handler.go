package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/xendit/xendit-go/v6/invoice"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/config"
	"github.com/raffialdn/karyapay/internal/helpers"
	"github.com/raffialdn/karyapay/internal/middleware"
	"github.com/raffialdn/karyapay/internal/models"
	"github.com/raffialdn/karyapay/internal/providers"
	"github.com/raffialdn/karyapay/internal/services"
)

type CheckoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CheckoutRequest struct {
	Items    []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
	Provider string                `json:"provider" binding:"required,oneof=doku xendit"`
	Method   string                `json:"method"`
}

func Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	buyerID := userID.(uuid.UUID)

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var buyer models.User
	if err := gormDB.First(&buyer, buyerID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	method := req.Method
	if method == "" {
		method = req.Provider
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, pt, err := services.PlaceOrder(gormDB, buyerID, lines, req.Provider, method, "IDR")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
			return
		}
		if errors.Is(err, services.ErrInvalidPayload) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to place order.")
		return
	}

	var payURL string
	switch req.Provider {
	case "doku":
		payURL, err = createDokuPaymentLink(order, pt, &buyer)
	case "xendit":
		payURL, err = createXenditInvoice(c, pt, &buyer)
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Payment link generation failed.")
		return
	}

	if err := gormDB.Model(pt).Update("pay_url", payURL).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to store payment link.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"payment_id":   pt.ID,
		"external_id":  pt.ExternalID,
		"total_amount": order.TotalAmount,
		"payment_url":  payURL,
	})
}

// createDokuPaymentLink requests a hosted checkout page from DOKU. The
// request is authenticated with the same Digest/Signature scheme DOKU uses
// on its notifications.
func createDokuPaymentLink(order *models.Order, pt *models.PaymentTransaction, buyer *models.User) (string, error) {
	dokuCfg, err := config.LoadDokuConfig()
	if err != nil {
		return "", err
	}

	lineItems := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, map[string]interface{}{
			"id":       item.ProductID.String(),
			"name":     item.ProductID.String(),
			"quantity": item.Quantity,
			"price":    json.Number(item.UnitPrice.String()),
		})
	}

	paymentBody := map[string]interface{}{
		"order": map[string]interface{}{
			"amount":                json.Number(order.TotalAmount.String()),
			"invoice_number":        pt.ExternalID,
			"currency":              order.Currency,
			"auto_redirect":         false,
			"disable_retry_payment": true,
			"line_items":            lineItems,
		},
		"payment": map[string]interface{}{
			"payment_due_date": 60,
		},
		"customer": map[string]interface{}{
			"id":    buyer.ID.String(),
			"name":  buyer.Name,
			"phone": buyer.PhoneNumber,
			"email": buyer.Email,
		},
	}

	jsonBody, err := json.Marshal(paymentBody)
	if err != nil {
		return "", err
	}

	signer := providers.DokuSigner{
		ClientID:  dokuCfg.ClientID,
		SecretKey: dokuCfg.SecretKey,
	}
	requestPath := "/checkout/v1/payment"
	headers := signer.RequestHeaders(jsonBody, requestPath)

	httpReq, err := http.NewRequest("POST", dokuCfg.BaseURL+requestPath, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errors.New("doku checkout returned " + resp.Status)
	}

	var responseBody map[string]interface{}
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return "", err
	}

	response, ok := responseBody["response"].(map[string]interface{})
	if !ok {
		return "", errors.New("unexpected doku checkout response")
	}
	payment, ok := response["payment"].(map[string]interface{})
	if !ok {
		return "", errors.New("unexpected doku checkout response")
	}
	payURL, ok := payment["url"].(string)
	if !ok {
		return "", errors.New("unexpected doku checkout response")
	}

	return payURL, nil
}

func createXenditInvoice(c *gin.Context, pt *models.PaymentTransaction, buyer *models.User) (string, error) {
	client := middleware.GetXenditClient(c)
	if client == nil {
		return "", errors.New("xendit client not configured")
	}

	createReq := *invoice.NewCreateInvoiceRequest(pt.ExternalID, pt.Amount.InexactFloat64())
	createReq.SetCurrency(pt.Currency)
	createReq.SetPayerEmail(buyer.Email)
	createReq.SetDescription("Order payment " + pt.ExternalID)

	inv, _, err := client.InvoiceApi.CreateInvoice(c.Request.Context()).
		CreateInvoiceRequest(createReq).Execute()
	if err != nil {
		return "", err
	}

	return inv.GetInvoiceUrl(), nil
}

// OrderPaymentQR renders the order's pending payment link as a QR image so
// the buyer can pick checkout up on another device.
func OrderPaymentQR(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var order models.Order
	if err := gormDB.Where("id = ?", orderID).First(&order).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}
	if order.BuyerID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this order.")
		return
	}

	var pt models.PaymentTransaction
	if err := gormDB.Where("order_id = ? AND pay_url <> ''", orderID).
		Order("created_at DESC").First(&pt).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "No payment link for this order.")
		return
	}

	qrImage, err := qrcode.Encode(pt.PayURL, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

func CancelOrder(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	order, err := services.CancelOrder(gormDB, orderID, userID.(uuid.UUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
			return
		}
		if errors.Is(err, services.ErrInvalidStateTransition) {
			helpers.RespondWithError(c, http.StatusConflict, "Order can no longer be cancelled. Use a refund instead.")
			return
		}
		if services.IsTransient(err) {
			helpers.RespondWithError(c, http.StatusServiceUnavailable, "Please retry shortly.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel order.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled.",
		"order": gin.H{
			"id":     order.ID,
			"status": order.Status,
		},
	})
}
