package coupons

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"satchel/apperr"
	"satchel/db"
	"satchel/models"
	"satchel/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Evaluate applies the coupon rules to a subtotal: active flag, expiry,
// usage limit and minimum spend. Returns the absolute discount amount.
func Evaluate(c *models.Coupon, subtotal float64, now time.Time) (float64, error) {
	if !c.Active {
		return 0, apperr.Forbidden("coupon_inactive", fmt.Sprintf("Coupon %q is not active.", c.Code))
	}
	if now.After(c.ExpiresAt) {
		return 0, apperr.Forbidden("coupon_expired", fmt.Sprintf("Coupon %q has expired.", c.Code))
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return 0, apperr.Forbidden("coupon_usage_limit", fmt.Sprintf("Coupon %q has reached its usage limit.", c.Code))
	}
	if c.MinSpend > 0 && subtotal < c.MinSpend {
		return 0, apperr.Forbidden("coupon_min_spend",
			fmt.Sprintf("Coupon %q requires a minimum spend of %s.", c.Code, utils.FormatMoney(c.MinSpend)))
	}
	return subtotal * c.Discount / 100, nil
}

// Validate looks the coupon up and evaluates it against the subtotal.
func Validate(ctx context.Context, code string, subtotal float64) (float64, error) {
	code = strings.TrimSpace(strings.ToLower(code))
	if code == "" {
		return 0, apperr.BadRequest("coupon_code_required", "A coupon code is required.")
	}

	var coupon models.Coupon
	err := db.CouponCollection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return 0, apperr.NotFound("coupon_not_found", fmt.Sprintf("Coupon %q was not found.", code))
	}
	if err != nil {
		return 0, err
	}
	return Evaluate(&coupon, subtotal, time.Now())
}

// Checker adapts Validate to the cart's CouponValidator interface.
type Checker struct{}

func (Checker) Validate(ctx context.Context, code string, subtotal float64) (float64, error) {
	return Validate(ctx, code, subtotal)
}

type couponRequest struct {
	Code string  `json:"code"`
	Cart float64 `json:"cart"` // cart subtotal, for min spend rules
}

type couponResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"` // absolute amount, not %
	Message  string  `json:"message"`
}

// ValidateCouponHandler checks a coupon without touching any cart.
func ValidateCouponHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}

	discount, err := Validate(ctx, req.Code, req.Cart)
	if err != nil {
		ae := apperr.From(err)
		if ae.Status >= http.StatusInternalServerError {
			utils.RespondWithAppError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, couponResponse{Valid: false, Message: ae.Message})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, couponResponse{
		Valid:    true,
		Discount: discount,
		Message:  "Coupon applied successfully",
	})
}

// CreateCoupon inserts a coupon. Admin-facing.
func CreateCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var coupon models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}

	coupon.Code = strings.TrimSpace(strings.ToLower(coupon.Code))
	if coupon.Code == "" || coupon.Discount <= 0 {
		utils.RespondWithAppError(w, apperr.BadRequest("missing_fields", "Coupon code and a positive discount are required."))
		return
	}
	if coupon.ExpiresAt.IsZero() {
		coupon.ExpiresAt = time.Now().Add(30 * 24 * time.Hour)
	}

	if _, err := db.CouponCollection.InsertOne(ctx, coupon); err != nil {
		log.Println("CreateCoupon InsertOne error:", err)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, coupon)
}
