package handlers

import (
	"context"
	"net/http"
	"time"

	"servicehub/models"
	"servicehub/services/api"
	"servicehub/services/policy"

	"github.com/gin-gonic/gin"
)

type OfferView struct {
	models.Offer
	Expired bool `json:"expired"`
}

type CouponView struct {
	models.Coupon
	Expired bool `json:"expired"`
}

func offerViews(offers []models.Offer, now time.Time) []OfferView {
	out := make([]OfferView, 0, len(offers))
	for _, o := range offers {
		out = append(out, OfferView{Offer: o, Expired: policy.Expired(o.ValidUntil, now)})
	}
	return out
}

func couponViews(coupons []models.Coupon, now time.Time) []CouponView {
	out := make([]CouponView, 0, len(coupons))
	for _, cp := range coupons {
		out = append(out, CouponView{Coupon: cp, Expired: policy.Expired(cp.ValidUntil, now)})
	}
	return out
}

func (hb *HandlerBundle) listOffers(ctx context.Context, c *api.Client, q api.ListQuery) (models.Page[OfferView], error) {
	page, err := api.List[models.Offer](ctx, c, api.Offers, q)
	if err != nil {
		return models.Page[OfferView]{}, err
	}
	return models.Page[OfferView]{
		Data:        offerViews(page.Data, hb.now()),
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Total:       page.Total,
	}, nil
}

func (hb *HandlerBundle) listCoupons(ctx context.Context, c *api.Client, q api.ListQuery) (models.Page[CouponView], error) {
	page, err := api.List[models.Coupon](ctx, c, api.Coupons, q)
	if err != nil {
		return models.Page[CouponView]{}, err
	}
	return models.Page[CouponView]{
		Data:        couponViews(page.Data, hb.now()),
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Total:       page.Total,
	}, nil
}

// ListOffers returns offers with their expired flag.
func (hb *HandlerBundle) ListOffers(c *gin.Context) {
	page, err := hb.listOffers(c.Request.Context(), hb.client(c), listQuery(c, "category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (hb *HandlerBundle) ListCoupons(c *gin.Context) {
	page, err := hb.listCoupons(c.Request.Context(), hb.client(c), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
